package calc

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest(RequestElement("add", 10, 5))
	require.NoError(t, err)
	assert.Equal(t, "add", req.Operation)
	assert.Equal(t, int64(10), req.A)
	assert.Equal(t, int64(5), req.B)
}

func TestParseRequest_NotARequest(t *testing.T) {
	el := etree.NewElement("addResponse")
	_, err := ParseRequest(el)
	assert.Error(t, err)
}

func TestParseRequest_MissingOperand(t *testing.T) {
	el := etree.NewElement("addRequest")
	el.CreateElement("a").SetText("10")
	_, err := ParseRequest(el)
	assert.ErrorContains(t, err, "missing operand b")
}

func TestParseRequest_BadOperand(t *testing.T) {
	el := etree.NewElement("addRequest")
	el.CreateElement("a").SetText("ten")
	el.CreateElement("b").SetText("5")
	_, err := ParseRequest(el)
	assert.ErrorContains(t, err, "invalid operand a")
}

func TestOperationFromElement(t *testing.T) {
	assert.Equal(t, "add", OperationFromElement("addRequest"))
	assert.Equal(t, "divide", OperationFromElement("divideRequest"))
	assert.Equal(t, "", OperationFromElement("Request"))
	assert.Equal(t, "", OperationFromElement("addResponse"))
}

func TestResponseRoundTrip(t *testing.T) {
	el := ResponseElement("add", 15)
	assert.Equal(t, "addResponse", el.Tag)

	result, err := ParseResponse(el)
	require.NoError(t, err)
	assert.Equal(t, int64(15), result)
}
