/*
Package dispatch routes decrypted SOAP requests to their operation
handlers.

Routing happens by the local name of the body's root element, which on
the wire is an opaque EncryptedData blob. The router therefore runs the
full inbound security pipeline before looking at the body: decrypt
first, then match. A conventional match-then-process mapping would see
every encrypted request as the same unroutable element.

Responses and post-authentication faults are secured with the response
pipeline (signed and encrypted, no token). Faults raised before the
sender was authenticated go back as plain SOAP faults - the peer just
failed the checks that would justify encrypting a reply to it.
*/
package dispatch
