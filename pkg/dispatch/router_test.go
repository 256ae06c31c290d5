package dispatch

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-wscalc/pkg/calc"
	"github.com/sirosfoundation/go-wscalc/pkg/credential"
	"github.com/sirosfoundation/go-wscalc/pkg/envelope"
	"github.com/sirosfoundation/go-wscalc/pkg/wssec"
)

const (
	testUser     = "alice"
	testPassword = "secret123"
)

// fixture wires up both sides of a secured exchange: the client pipelines
// that produce requests and read responses, and a router configured the
// way the server runs it.
type fixture struct {
	router    *Router
	clientOut *wssec.Outbound
	clientIn  *wssec.Inbound
}

func newKeyPair(t *testing.T, cn string) (*rsa.PrivateKey, *x509.Certificate) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return key, cert
}

func newFixture(t *testing.T, clientPassword string) *fixture {
	t.Helper()

	clientKey, clientCert := newKeyPair(t, "client")
	serverKey, serverCert := newKeyPair(t, "server")

	requestPolicy := wssec.NewPolicy(wssec.ActionUsernameToken, wssec.ActionSignature, wssec.ActionEncrypt)
	responsePolicy := requestPolicy.Without(wssec.ActionUsernameToken)

	serverStore, err := credential.NewStore(
		&credential.Credential{Name: testUser, Password: testPassword},
		&credential.Credential{Name: "server", Key: serverKey, Certificate: serverCert},
		&credential.Credential{Name: "client", Certificate: clientCert},
	)
	require.NoError(t, err)
	serverResolver := credential.NewResolver(serverStore, nil)

	serverIdentity := wssec.Identity{Local: "server", Peer: "client"}
	router := NewRouter(
		wssec.NewInbound(serverResolver, requestPolicy, serverIdentity, nil),
		wssec.NewOutbound(serverResolver, responsePolicy, serverIdentity, nil),
		nil,
	)
	router.RegisterCalculator()

	clientStore, err := credential.NewStore(
		&credential.Credential{Name: testUser, Password: clientPassword},
		&credential.Credential{Name: "client", Key: clientKey, Certificate: clientCert},
		&credential.Credential{Name: "server", Certificate: serverCert},
	)
	require.NoError(t, err)
	clientResolver := credential.NewResolver(clientStore, nil)

	clientIdentity := wssec.Identity{Local: "client", Peer: "server", TokenUser: testUser}
	return &fixture{
		router:    router,
		clientOut: wssec.NewOutbound(clientResolver, requestPolicy, clientIdentity, nil),
		clientIn:  wssec.NewInbound(clientResolver, responsePolicy, clientIdentity, nil),
	}
}

func (f *fixture) securedRequest(t *testing.T, op string, a, b int64) *envelope.Envelope {
	t.Helper()
	env := envelope.New()
	env.SetBodyContent(calc.RequestElement(op, a, b))
	secured, err := f.clientOut.Secure(env)
	require.NoError(t, err)
	return secured
}

// readResponse runs the client inbound pipeline and returns the restored
// plaintext envelope
func (f *fixture) readResponse(t *testing.T, resp *envelope.Envelope) *envelope.Envelope {
	t.Helper()
	plain, result := f.clientIn.Unsecure(resp)
	require.True(t, result.OK(), "client could not unsecure response: %+v", result.Fault)
	return plain
}

func TestRoute_Add(t *testing.T) {
	f := newFixture(t, testPassword)

	resp, outcome := f.router.Route(f.securedRequest(t, "add", 10, 5))
	require.Nil(t, outcome.Fault)
	assert.Equal(t, "addRequest", outcome.Operation)
	assert.Equal(t, testUser, outcome.Identity)

	// The response body is encrypted on the wire
	wire, err := resp.String()
	require.NoError(t, err)
	assert.NotContains(t, wire, "addResponse")
	assert.NotContains(t, wire, "UsernameToken")

	plain := f.readResponse(t, resp)
	assert.Equal(t, "addResponse", plain.OperationName())
	result, err := calc.ParseResponse(plain.BodyContent())
	require.NoError(t, err)
	assert.Equal(t, int64(15), result)
}

func TestRoute_AllOperations(t *testing.T) {
	f := newFixture(t, testPassword)

	tests := []struct {
		op   string
		a, b int64
		want int64
	}{
		{"add", 10, 5, 15},
		{"subtract", 10, 5, 5},
		{"multiply", 10, 5, 50},
		{"divide", 10, 5, 2},
	}
	for _, tc := range tests {
		resp, outcome := f.router.Route(f.securedRequest(t, tc.op, tc.a, tc.b))
		require.Nil(t, outcome.Fault, "%s faulted", tc.op)

		plain := f.readResponse(t, resp)
		result, err := calc.ParseResponse(plain.BodyContent())
		require.NoError(t, err)
		assert.Equal(t, tc.want, result, tc.op)
	}
}

// The router must decrypt before matching: an encrypted request for an
// unregistered operation is only recognizable as such after decryption
// succeeds, so it faults UnknownOperation rather than DecryptionFailed.
func TestRoute_UnknownOperationAfterDecrypt(t *testing.T) {
	f := newFixture(t, testPassword)

	env := envelope.New()
	req := etree.NewElement("calc:fooRequest")
	req.CreateAttr("xmlns:calc", calc.Namespace)
	env.SetBodyContent(req)
	secured, err := f.clientOut.Secure(env)
	require.NoError(t, err)

	resp, outcome := f.router.Route(secured)
	require.NotNil(t, outcome.Fault)
	assert.Equal(t, wssec.FaultUnknownOperation, outcome.Fault.Kind)
	assert.Equal(t, "fooRequest", outcome.Operation)

	// Post-authentication faults come back secured
	plain := f.readResponse(t, resp)
	info, ok := plain.FaultInfo()
	require.True(t, ok)
	assert.Equal(t, string(wssec.FaultUnknownOperation), info.Kind)
	assert.Equal(t, envelope.FaultCodeClient, info.Code)
}

func TestRoute_CorruptedCiphertext(t *testing.T) {
	f := newFixture(t, testPassword)

	// Count handler invocations to prove no handler ran
	calls := 0
	f.router.Register("addRequest", func(req *etree.Element) (*etree.Element, *wssec.Fault) {
		calls++
		return calc.ResponseElement("add", 0), nil
	})

	secured := f.securedRequest(t, "add", 10, 5)
	cv := secured.Body().FindElement(
		"./*[local-name()='EncryptedData']/*[local-name()='CipherData']/*[local-name()='CipherValue']")
	require.NotNil(t, cv)
	cv.SetText("Y29ycnVwdGVkY2lwaGVydGV4dGNvcnJ1cHRlZA==")

	resp, outcome := f.router.Route(secured)
	require.NotNil(t, outcome.Fault)
	assert.Equal(t, wssec.FaultDecryptionFailed, outcome.Fault.Kind)
	assert.Equal(t, "", outcome.Operation)
	assert.Zero(t, calls)

	// Security faults come back as plain SOAP faults
	info, ok := resp.FaultInfo()
	require.True(t, ok)
	assert.Equal(t, string(wssec.FaultDecryptionFailed), info.Kind)
	assert.Nil(t, resp.SecurityHeader())
}

func TestRoute_WrongPassword(t *testing.T) {
	f := newFixture(t, "not-the-password")

	calls := 0
	f.router.Register("addRequest", func(req *etree.Element) (*etree.Element, *wssec.Fault) {
		calls++
		return calc.ResponseElement("add", 0), nil
	})

	resp, outcome := f.router.Route(f.securedRequest(t, "add", 10, 5))
	require.NotNil(t, outcome.Fault)
	assert.Equal(t, wssec.FaultAuthenticationFailed, outcome.Fault.Kind)
	assert.Zero(t, calls)

	info, ok := resp.FaultInfo()
	require.True(t, ok)
	assert.Equal(t, string(wssec.FaultAuthenticationFailed), info.Kind)
	assert.Equal(t, envelope.FaultCodeClient, info.Code)
}

func TestRoute_DivideByZero(t *testing.T) {
	f := newFixture(t, testPassword)

	resp, outcome := f.router.Route(f.securedRequest(t, "divide", 10, 0))
	require.NotNil(t, outcome.Fault)
	assert.Equal(t, wssec.FaultDivisionByZero, outcome.Fault.Kind)
	assert.Equal(t, testUser, outcome.Identity)

	plain := f.readResponse(t, resp)
	info, ok := plain.FaultInfo()
	require.True(t, ok)
	assert.Equal(t, string(wssec.FaultDivisionByZero), info.Kind)
	assert.Equal(t, envelope.FaultCodeClient, info.Code)
}

func TestRoute_InvalidOperands(t *testing.T) {
	f := newFixture(t, testPassword)

	env := envelope.New()
	req := etree.NewElement("calc:addRequest")
	req.CreateAttr("xmlns:calc", calc.Namespace)
	req.CreateElement("calc:a").SetText("ten")
	req.CreateElement("calc:b").SetText("5")
	env.SetBodyContent(req)
	secured, err := f.clientOut.Secure(env)
	require.NoError(t, err)

	_, outcome := f.router.Route(secured)
	require.NotNil(t, outcome.Fault)
	assert.Equal(t, wssec.FaultInvalidRequest, outcome.Fault.Kind)
}
