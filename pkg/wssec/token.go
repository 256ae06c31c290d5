package wssec

import (
	"github.com/beevik/etree"
	"github.com/google/uuid"

	"github.com/sirosfoundation/go-wscalc/pkg/envelope"
)

// WS-Security profile URIs
const (
	passwordTextType = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-username-token-profile-1.0#PasswordText"
	base64Encoding   = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-soap-message-security-1.0#Base64Binary"
	x509TokenType    = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-x509-token-profile-1.0#X509v3"
)

// newID generates a unique value for wsu:Id and xenc Id attributes
func newID() string {
	return uuid.New().String()
}

// ensureSecurityHeader returns the wsse:Security element, creating it
// with mustUnderstand on first use
func ensureSecurityHeader(env *envelope.Envelope) *etree.Element {
	if sec := env.SecurityHeader(); sec != nil {
		return sec
	}
	header := env.EnsureHeader()
	sec := header.CreateElement("wsse:Security")
	sec.CreateAttr("xmlns:wsse", envelope.NSSecurityExt)
	sec.CreateAttr("soapenv:mustUnderstand", "1")
	return sec
}

// attachUsernameToken adds a wsse:UsernameToken carrying the password in
// cleartext. PasswordText is what the deployed peers exchange; see the
// package documentation for why the digest variant is not used.
func attachUsernameToken(env *envelope.Envelope, username, password string) {
	sec := ensureSecurityHeader(env)

	token := sec.CreateElement("wsse:UsernameToken")
	token.CreateAttr("wsu:Id", "UsernameToken-"+newID())
	token.CreateElement("wsse:Username").SetText(username)
	pw := token.CreateElement("wsse:Password")
	pw.CreateAttr("Type", passwordTextType)
	pw.SetText(password)
}

// usernameToken holds the fields extracted from a wsse:UsernameToken
type usernameToken struct {
	Username     string
	Password     string
	PasswordType string
}

// findUsernameToken extracts the UsernameToken from the Security header.
// Returns nil when the header or token is absent.
func findUsernameToken(env *envelope.Envelope) *usernameToken {
	sec := env.SecurityHeader()
	if sec == nil {
		return nil
	}
	tokenElem := sec.FindElement("./*[local-name()='UsernameToken']")
	if tokenElem == nil {
		return nil
	}

	token := &usernameToken{}
	if el := tokenElem.FindElement("./*[local-name()='Username']"); el != nil {
		token.Username = el.Text()
	}
	if el := tokenElem.FindElement("./*[local-name()='Password']"); el != nil {
		token.Password = el.Text()
		token.PasswordType = el.SelectAttrValue("Type", passwordTextType)
	}
	return token
}
