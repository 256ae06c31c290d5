package wssec

// FaultKind classifies processing failures for the SOAP fault detail
type FaultKind string

const (
	FaultAuthenticationFailed FaultKind = "AuthenticationFailed"
	FaultSignatureInvalid     FaultKind = "SignatureInvalid"
	FaultSignatureMissing     FaultKind = "SignatureMissing"
	FaultDecryptionFailed     FaultKind = "DecryptionFailed"
	FaultUnknownOperation     FaultKind = "UnknownOperation"
	FaultInvalidRequest       FaultKind = "InvalidRequest"
	FaultDivisionByZero       FaultKind = "DivisionByZero"
	FaultInternal             FaultKind = "InternalError"
)

// Fault is a processing failure destined for a SOAP fault response. It is
// deliberately not an error: faults are expected protocol outcomes that
// the dispatcher turns into fault envelopes, not conditions to bubble up
// a call stack.
type Fault struct {
	Kind       FaultKind
	Message    string
	DetailCode string
}

func NewFault(kind FaultKind, message string) *Fault {
	return &Fault{Kind: kind, Message: message}
}

// IsSecurity reports whether the fault arose before the message was
// authenticated. Security faults get plain fault responses: the peer
// failed the very checks that would justify securing a reply to it.
func (f *Fault) IsSecurity() bool {
	switch f.Kind {
	case FaultAuthenticationFailed, FaultSignatureInvalid, FaultSignatureMissing, FaultDecryptionFailed:
		return true
	}
	return false
}

// ClientFault reports whether the fault is the caller's doing, for the
// SOAP 1.1 Client/Server faultcode split
func (f *Fault) ClientFault() bool {
	return f.Kind != FaultInternal
}
