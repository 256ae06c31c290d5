package envelope

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"
)

// XML namespaces used throughout the codec and the security pipelines
const (
	NSSoap         = "http://schemas.xmlsoap.org/soap/envelope/"
	NSSecurityExt  = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd"
	NSSecurityUtil = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-utility-1.0.xsd"
	NSXMLDSig      = "http://www.w3.org/2000/09/xmldsig#"
	NSXMLEnc       = "http://www.w3.org/2001/04/xmlenc#"
)

var (
	// ErrNotSOAP is returned when the parsed document is not a SOAP envelope
	ErrNotSOAP = errors.New("document is not a SOAP envelope")
	// ErrNoBody is returned when the envelope has no Body element
	ErrNoBody = errors.New("SOAP envelope has no Body")
)

// Envelope wraps an etree document holding a SOAP 1.1 envelope.
// It is not safe for concurrent use; each pipeline stage owns the
// envelope it is processing and hands it off to the next stage.
type Envelope struct {
	doc *etree.Document
}

// New creates an empty envelope with a Header and a Body
func New() *Envelope {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("soapenv:Envelope")
	root.CreateAttr("xmlns:soapenv", NSSoap)
	root.CreateElement("soapenv:Header")
	root.CreateElement("soapenv:Body")
	return &Envelope{doc: doc}
}

// Parse reads a SOAP envelope from wire bytes
func Parse(data []byte) (*Envelope, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parsing envelope: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "Envelope" {
		return nil, ErrNotSOAP
	}
	env := &Envelope{doc: doc}
	if env.Body() == nil {
		return nil, ErrNoBody
	}
	return env, nil
}

// Bytes serializes the envelope to wire bytes
func (e *Envelope) Bytes() ([]byte, error) {
	return e.doc.WriteToBytes()
}

// String serializes the envelope, primarily for logging and tests
func (e *Envelope) String() (string, error) {
	return e.doc.WriteToString()
}

// Document exposes the underlying DOM for the security pipelines
func (e *Envelope) Document() *etree.Document {
	return e.doc
}

// Root returns the Envelope element
func (e *Envelope) Root() *etree.Element {
	return e.doc.Root()
}

// Header returns the Header element, or nil if the envelope has none
func (e *Envelope) Header() *etree.Element {
	root := e.doc.Root()
	if root == nil {
		return nil
	}
	return root.FindElement("./*[local-name()='Header']")
}

// EnsureHeader returns the Header element, creating one before the Body
// if the envelope arrived without a header section
func (e *Envelope) EnsureHeader() *etree.Element {
	if h := e.Header(); h != nil {
		return h
	}
	root := e.doc.Root()
	h := etree.NewElement("soapenv:Header")
	root.InsertChildAt(0, h)
	return root.FindElement("./*[local-name()='Header']")
}

// Body returns the Body element, or nil if absent
func (e *Envelope) Body() *etree.Element {
	root := e.doc.Root()
	if root == nil {
		return nil
	}
	return root.FindElement("./*[local-name()='Body']")
}

// BodyContent returns the first child element of the Body, which is either
// the operation element or an EncryptedData blob. Nil for an empty body.
func (e *Envelope) BodyContent() *etree.Element {
	body := e.Body()
	if body == nil {
		return nil
	}
	children := body.ChildElements()
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

// OperationName returns the local name of the body's root element,
// or "" when the body is empty
func (e *Envelope) OperationName() string {
	content := e.BodyContent()
	if content == nil {
		return ""
	}
	return content.Tag
}

// SetBodyContent replaces the body's children with the given element
func (e *Envelope) SetBodyContent(el *etree.Element) {
	body := e.Body()
	for _, child := range body.ChildElements() {
		body.RemoveChild(child)
	}
	body.AddChild(el)
}

// HeaderElement finds a direct child of the Header by local name
func (e *Envelope) HeaderElement(localName string) *etree.Element {
	header := e.Header()
	if header == nil {
		return nil
	}
	return header.FindElement(fmt.Sprintf("./*[local-name()='%s']", localName))
}

// SecurityHeader returns the wsse:Security element, or nil if absent
func (e *Envelope) SecurityHeader() *etree.Element {
	return e.HeaderElement("Security")
}

// RemoveSecurityHeader strips the wsse:Security element after inbound
// processing has consumed it
func (e *Envelope) RemoveSecurityHeader() {
	header := e.Header()
	if header == nil {
		return
	}
	if sec := e.SecurityHeader(); sec != nil {
		header.RemoveChild(sec)
	}
}

// Clone returns a deep copy. The pipelines operate on clones so a failed
// stage never leaves a partially transformed envelope behind.
func (e *Envelope) Clone() *Envelope {
	return &Envelope{doc: e.doc.Copy()}
}
