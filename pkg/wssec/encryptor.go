// Copyright (c) 2025 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

package wssec

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"fmt"

	"github.com/beevik/etree"
	"github.com/sirosfoundation/signedxml/xmlenc"

	"github.com/sirosfoundation/go-wscalc/pkg/envelope"
)

// XML encryption algorithm URIs
const (
	algRSAOAEP      = "http://www.w3.org/2001/04/xmlenc#rsa-oaep-mgf1p"
	xencTypeContent = "http://www.w3.org/2001/04/xmlenc#Content"
)

// encryptBody replaces the Body's children with an xenc:EncryptedData
// element and adds the wrapped content key to the Security header. The
// Body element itself is left in place so its wsu:Id - and therefore the
// signature reference - survives the round trip.
func encryptBody(env *envelope.Envelope, recipientCert *x509.Certificate) error {
	body := env.Body()
	if body == nil {
		return fmt.Errorf("SOAP Body not found")
	}
	children := body.ChildElements()
	if len(children) == 0 {
		return fmt.Errorf("nothing to encrypt: Body is empty")
	}

	rsaPub, ok := recipientCert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return fmt.Errorf("recipient certificate does not contain RSA public key")
	}

	// Serialize the body contents as the plaintext
	frag := etree.NewDocument()
	for _, child := range children {
		frag.AddChild(child.Copy())
	}
	plaintext, err := frag.WriteToBytes()
	if err != nil {
		return fmt.Errorf("failed to serialize body content: %w", err)
	}

	// Generate Content Encryption Key (CEK)
	keySize := xmlenc.KeySize(xmlenc.AlgorithmAES128GCM)
	if keySize == 0 {
		return fmt.Errorf("unsupported content encryption algorithm")
	}
	cek := make([]byte, keySize)
	if _, err := rand.Read(cek); err != nil {
		return fmt.Errorf("failed to generate CEK: %w", err)
	}

	// AESGCMEncrypt prepends the nonce to the ciphertext
	ciphertext, err := xmlenc.AESGCMEncrypt(cek, plaintext, nil)
	if err != nil {
		return fmt.Errorf("failed to encrypt body: %w", err)
	}

	// Wrap the CEK for the recipient with RSA-OAEP
	wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, rsaPub, cek, nil)
	if err != nil {
		return fmt.Errorf("failed to wrap CEK: %w", err)
	}

	edID := "ED-" + newID()

	security := ensureSecurityHeader(env)
	addEncryptedKey(security, recipientCert, wrapped, edID)

	for _, child := range children {
		body.RemoveChild(child)
	}
	body.AddChild(encryptedDataElement(edID, ciphertext))

	return nil
}

// decryptBody unwraps the content key from the Security header, decrypts
// the EncryptedData in the Body and restores the original body contents.
// The consumed EncryptedKey is removed from the Security header.
func decryptBody(env *envelope.Envelope, decrypter crypto.Decrypter) error {
	security := env.SecurityHeader()
	if security == nil {
		return fmt.Errorf("Security header not found")
	}
	encKeyElem := security.FindElement("./*[local-name()='EncryptedKey']")
	if encKeyElem == nil {
		return fmt.Errorf("EncryptedKey not found in Security header")
	}

	wrapped, err := cipherValue(encKeyElem)
	if err != nil {
		return fmt.Errorf("failed to read EncryptedKey: %w", err)
	}

	cek, err := decrypter.Decrypt(rand.Reader, wrapped, &rsa.OAEPOptions{Hash: crypto.SHA256})
	if err != nil {
		return fmt.Errorf("failed to unwrap CEK: %w", err)
	}

	body := env.Body()
	if body == nil {
		return fmt.Errorf("SOAP Body not found")
	}
	encDataElem := body.FindElement("./*[local-name()='EncryptedData']")
	if encDataElem == nil {
		return fmt.Errorf("EncryptedData not found in Body")
	}

	ciphertext, err := cipherValue(encDataElem)
	if err != nil {
		return fmt.Errorf("failed to read EncryptedData: %w", err)
	}

	// Ciphertext includes the prepended nonce
	plaintext, err := xmlenc.AESGCMDecrypt(cek, ciphertext, nil)
	if err != nil {
		return fmt.Errorf("failed to decrypt body: %w", err)
	}

	frag := etree.NewDocument()
	if err := frag.ReadFromBytes(plaintext); err != nil {
		return fmt.Errorf("failed to parse decrypted body content: %w", err)
	}

	body.RemoveChild(encDataElem)
	for _, restored := range frag.ChildElements() {
		body.AddChild(restored.Copy())
	}

	security.RemoveChild(encKeyElem)
	return nil
}

// isBodyEncrypted reports whether the Body carries an EncryptedData blob
func isBodyEncrypted(env *envelope.Envelope) bool {
	body := env.Body()
	if body == nil {
		return false
	}
	return body.FindElement("./*[local-name()='EncryptedData']") != nil
}

// addEncryptedKey builds the xenc:EncryptedKey element and inserts it
// into the Security header, after the Signature if one is present
func addEncryptedKey(security *etree.Element, recipientCert *x509.Certificate, wrapped []byte, dataRefID string) {
	encKeyElem := etree.NewElement("xenc:EncryptedKey")
	encKeyElem.CreateAttr("xmlns:xenc", envelope.NSXMLEnc)
	encKeyElem.CreateAttr("Id", "EK-"+newID())

	encMethod := encKeyElem.CreateElement("xenc:EncryptionMethod")
	encMethod.CreateAttr("Algorithm", algRSAOAEP)
	digestMethod := encMethod.CreateElement("ds:DigestMethod")
	digestMethod.CreateAttr("xmlns:ds", envelope.NSXMLDSig)
	digestMethod.CreateAttr("Algorithm", algDigestSHA256)

	// Identify the recipient's certificate by issuer and serial
	keyInfo := encKeyElem.CreateElement("ds:KeyInfo")
	keyInfo.CreateAttr("xmlns:ds", envelope.NSXMLDSig)
	secTokenRef := keyInfo.CreateElement("wsse:SecurityTokenReference")
	x509Data := secTokenRef.CreateElement("ds:X509Data")
	issuerSerial := x509Data.CreateElement("ds:X509IssuerSerial")
	issuerSerial.CreateElement("ds:X509IssuerName").SetText(recipientCert.Issuer.String())
	issuerSerial.CreateElement("ds:X509SerialNumber").SetText(recipientCert.SerialNumber.String())

	cipherData := encKeyElem.CreateElement("xenc:CipherData")
	cipherData.CreateElement("xenc:CipherValue").SetText(base64.StdEncoding.EncodeToString(wrapped))

	refList := encKeyElem.CreateElement("xenc:ReferenceList")
	dataRef := refList.CreateElement("xenc:DataReference")
	dataRef.CreateAttr("URI", "#"+dataRefID)

	// After Signature per WS-Security guidelines
	sig := security.FindElement("./*[local-name()='Signature']")
	if sig != nil {
		sigIndex := -1
		for i, child := range security.ChildElements() {
			if child == sig {
				sigIndex = i
				break
			}
		}
		if sigIndex >= 0 && sigIndex < len(security.ChildElements())-1 {
			security.InsertChildAt(sigIndex+1, encKeyElem)
			return
		}
	}
	security.AddChild(encKeyElem)
}

func encryptedDataElement(id string, ciphertext []byte) *etree.Element {
	ed := etree.NewElement("xenc:EncryptedData")
	ed.CreateAttr("xmlns:xenc", envelope.NSXMLEnc)
	ed.CreateAttr("Id", id)
	ed.CreateAttr("Type", xencTypeContent)

	encMethod := ed.CreateElement("xenc:EncryptionMethod")
	encMethod.CreateAttr("Algorithm", xmlenc.AlgorithmAES128GCM)

	cipherData := ed.CreateElement("xenc:CipherData")
	cipherData.CreateElement("xenc:CipherValue").SetText(base64.StdEncoding.EncodeToString(ciphertext))

	return ed
}

// cipherValue extracts and decodes the CipherData/CipherValue text of an
// EncryptedKey or EncryptedData element
func cipherValue(elem *etree.Element) ([]byte, error) {
	cv := elem.FindElement("./*[local-name()='CipherData']/*[local-name()='CipherValue']")
	if cv == nil {
		return nil, fmt.Errorf("CipherValue not found")
	}
	data, err := base64.StdEncoding.DecodeString(cv.Text())
	if err != nil {
		return nil, fmt.Errorf("failed to decode CipherValue: %w", err)
	}
	return data, nil
}
