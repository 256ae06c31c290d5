package envelope

import "github.com/beevik/etree"

// NSFaultDetail is the namespace of the machine-readable fault detail
const NSFaultDetail = "http://service.example.com/faults"

// SOAP 1.1 fault codes
const (
	FaultCodeClient = "soapenv:Client"
	FaultCodeServer = "soapenv:Server"
)

// FaultInfo is the parsed form of a soapenv:Fault body
type FaultInfo struct {
	Code       string // soapenv:Client or soapenv:Server
	Reason     string // human-readable faultstring
	Kind       string // machine-readable fault kind from the detail section
	DetailCode string // optional secondary code
}

// NewFault builds a fault envelope. kind and detailCode populate the
// detail section so clients can distinguish "your input was invalid"
// from "you are not authorized" without string-matching the reason.
func NewFault(code, reason, kind, detailCode string) *Envelope {
	env := New()

	fault := etree.NewElement("soapenv:Fault")
	fault.CreateElement("faultcode").SetText(code)
	fault.CreateElement("faultstring").SetText(reason)

	if kind != "" {
		detail := fault.CreateElement("detail")
		fd := detail.CreateElement("flt:FaultDetail")
		fd.CreateAttr("xmlns:flt", NSFaultDetail)
		fd.CreateElement("flt:kind").SetText(kind)
		if detailCode != "" {
			fd.CreateElement("flt:code").SetText(detailCode)
		}
	}

	env.SetBodyContent(fault)
	return env
}

// FaultInfo parses the body as a SOAP fault. The second return is false
// when the body is not a fault.
func (e *Envelope) FaultInfo() (*FaultInfo, bool) {
	content := e.BodyContent()
	if content == nil || content.Tag != "Fault" {
		return nil, false
	}

	info := &FaultInfo{}
	if el := content.FindElement("./*[local-name()='faultcode']"); el != nil {
		info.Code = el.Text()
	}
	if el := content.FindElement("./*[local-name()='faultstring']"); el != nil {
		info.Reason = el.Text()
	}
	if el := content.FindElement("./*[local-name()='detail']/*[local-name()='FaultDetail']/*[local-name()='kind']"); el != nil {
		info.Kind = el.Text()
	}
	if el := content.FindElement("./*[local-name()='detail']/*[local-name()='FaultDetail']/*[local-name()='code']"); el != nil {
		info.DetailCode = el.Text()
	}
	return info, true
}

// IsFault reports whether the body carries a SOAP fault
func (e *Envelope) IsFault() bool {
	_, ok := e.FaultInfo()
	return ok
}
