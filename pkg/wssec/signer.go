// Copyright (c) 2025 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

package wssec

import (
	"crypto"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/beevik/etree"
	"github.com/sirosfoundation/signedxml"

	"github.com/sirosfoundation/go-wscalc/pkg/envelope"
)

// XML signature algorithm URIs
const (
	algExcC14N      = "http://www.w3.org/2001/10/xml-exc-c14n#"
	algRSASHA256    = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
	algDigestSHA256 = "http://www.w3.org/2001/04/xmlenc#sha256"
)

const timestampTTL = 5 * time.Minute

// signEnvelope builds the Security header signature structure and signs
// the envelope. References cover the timestamp and the body; the signing
// certificate travels as a BinarySecurityToken. Returns a fresh envelope
// parsed from the signed serialization.
func signEnvelope(env *envelope.Envelope, key crypto.Signer, cert *x509.Certificate) (*envelope.Envelope, error) {
	root := env.Root()
	ensureSecurityNamespaces(root)

	security := ensureSecurityHeader(env)

	// BinarySecurityToken carrying the signing certificate
	bstID := "X509-" + newID()
	bst := security.CreateElement("wsse:BinarySecurityToken")
	bst.CreateAttr("wsu:Id", bstID)
	bst.CreateAttr("EncodingType", base64Encoding)
	bst.CreateAttr("ValueType", x509TokenType)
	bst.SetText(base64.StdEncoding.EncodeToString(cert.Raw))

	// Timestamp limits the replay window
	timestampID := "TS-" + newID()
	timestamp := security.CreateElement("wsu:Timestamp")
	timestamp.CreateAttr("wsu:Id", timestampID)
	now := time.Now().UTC()
	timestamp.CreateElement("wsu:Created").SetText(now.Format("2006-01-02T15:04:05.000Z"))
	timestamp.CreateElement("wsu:Expires").SetText(now.Add(timestampTTL).Format("2006-01-02T15:04:05.000Z"))

	body := env.Body()
	if body == nil {
		return nil, fmt.Errorf("SOAP Body not found")
	}
	bodyID := getOrCreateID(body, "id-")

	// Signature template; signedxml fills digests and the signature value
	sig := security.CreateElement("ds:Signature")
	sig.CreateAttr("xmlns:ds", envelope.NSXMLDSig)

	signedInfo := sig.CreateElement("ds:SignedInfo")

	c14nMethod := signedInfo.CreateElement("ds:CanonicalizationMethod")
	c14nMethod.CreateAttr("Algorithm", algExcC14N)
	c14nInclNS := c14nMethod.CreateElement("ec:InclusiveNamespaces")
	c14nInclNS.CreateAttr("xmlns:ec", algExcC14N)
	c14nInclNS.CreateAttr("PrefixList", "soapenv")

	sigMethod := signedInfo.CreateElement("ds:SignatureMethod")
	sigMethod.CreateAttr("Algorithm", algRSASHA256)

	addReference(signedInfo, timestampID)
	addReference(signedInfo, bodyID)

	sig.CreateElement("ds:SignatureValue").SetText("placeholder")

	keyInfo := sig.CreateElement("ds:KeyInfo")
	secTokenRef := keyInfo.CreateElement("wsse:SecurityTokenReference")
	reference := secTokenRef.CreateElement("wsse:Reference")
	reference.CreateAttr("URI", "#"+bstID)
	reference.CreateAttr("ValueType", x509TokenType)

	xmlStr, err := env.String()
	if err != nil {
		return nil, fmt.Errorf("failed to write XML: %w", err)
	}

	signer, err := signedxml.NewSigner(xmlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create signer: %w", err)
	}
	signer.SetReferenceIDAttribute("wsu:Id")

	signedXML, err := signer.Sign(key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}

	return envelope.Parse([]byte(signedXML))
}

// verifyEnvelope validates the signature against the trusted certificate.
// The certificate embedded in the message's BinarySecurityToken is not
// consulted; trust comes from the resolver, never from the wire.
func verifyEnvelope(env *envelope.Envelope, cert *x509.Certificate) error {
	xmlStr, err := env.String()
	if err != nil {
		return fmt.Errorf("failed to write XML: %w", err)
	}

	validator, err := signedxml.NewValidator(xmlStr)
	if err != nil {
		return fmt.Errorf("failed to create validator: %w", err)
	}
	validator.Certificates = append(validator.Certificates, *cert)
	validator.SetReferenceIDAttribute("wsu:Id")

	if _, err := validator.ValidateReferences(); err != nil {
		return fmt.Errorf("signature validation failed: %w", err)
	}
	return nil
}

// hasSignature reports whether the Security header carries a Signature,
// so a missing signature can be faulted separately from a broken one
func hasSignature(env *envelope.Envelope) bool {
	sec := env.SecurityHeader()
	if sec == nil {
		return false
	}
	return sec.FindElement("./*[local-name()='Signature']") != nil
}

func ensureSecurityNamespaces(root *etree.Element) {
	if root.SelectAttr("xmlns:wsu") == nil {
		root.CreateAttr("xmlns:wsu", envelope.NSSecurityUtil)
	}
	if root.SelectAttr("xmlns:wsse") == nil {
		root.CreateAttr("xmlns:wsse", envelope.NSSecurityExt)
	}
}

func getOrCreateID(elem *etree.Element, prefix string) string {
	id := elem.SelectAttrValue("wsu:Id", "")
	if id == "" {
		for _, attr := range elem.Attr {
			if attr.Key == "wsu:Id" || attr.FullKey() == "{"+envelope.NSSecurityUtil+"}Id" {
				id = attr.Value
				break
			}
		}
	}
	if id == "" {
		id = prefix + newID()
		elem.CreateAttr("wsu:Id", id)
	}
	return id
}

func addReference(signedInfo *etree.Element, id string) {
	ref := signedInfo.CreateElement("ds:Reference")
	ref.CreateAttr("URI", "#"+id)

	transforms := ref.CreateElement("ds:Transforms")
	transform := transforms.CreateElement("ds:Transform")
	transform.CreateAttr("Algorithm", algExcC14N)

	digestMethod := ref.CreateElement("ds:DigestMethod")
	digestMethod.CreateAttr("Algorithm", algDigestSHA256)

	// Placeholder - signedxml fills this in during Sign()
	ref.CreateElement("ds:DigestValue").SetText("placeholder")
}
