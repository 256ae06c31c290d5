package calc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Namespace is the XML namespace of the calculator request and response
// elements
const Namespace = "http://service.example.com/"

// Request is a parsed calculator request
type Request struct {
	// Operation is the bare operation name ("add"), derived from the
	// request element's local name ("addRequest")
	Operation string
	A, B      int64
}

// OperationFromElement maps a request element's local name to the bare
// operation name, or "" if the name does not follow the opRequest form
func OperationFromElement(localName string) string {
	op, ok := strings.CutSuffix(localName, "Request")
	if !ok || op == "" {
		return ""
	}
	return op
}

// ParseRequest reads the operands from a request element such as
// <addRequest><a>10</a><b>5</b></addRequest>
func ParseRequest(el *etree.Element) (*Request, error) {
	op := OperationFromElement(el.Tag)
	if op == "" {
		return nil, fmt.Errorf("not a calculator request element: %s", el.Tag)
	}

	a, err := operand(el, "a")
	if err != nil {
		return nil, err
	}
	b, err := operand(el, "b")
	if err != nil {
		return nil, err
	}
	return &Request{Operation: op, A: a, B: b}, nil
}

func operand(el *etree.Element, name string) (int64, error) {
	child := el.FindElement(fmt.Sprintf("./*[local-name()='%s']", name))
	if child == nil {
		return 0, fmt.Errorf("missing operand %s", name)
	}
	v, err := strconv.ParseInt(strings.TrimSpace(child.Text()), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid operand %s: %w", name, err)
	}
	return v, nil
}

// RequestElement builds a request element for the given operation
func RequestElement(operation string, a, b int64) *etree.Element {
	el := etree.NewElement("calc:" + operation + "Request")
	el.CreateAttr("xmlns:calc", Namespace)
	el.CreateElement("calc:a").SetText(strconv.FormatInt(a, 10))
	el.CreateElement("calc:b").SetText(strconv.FormatInt(b, 10))
	return el
}

// ResponseElement builds a response element such as
// <addResponse><result>15</result></addResponse>
func ResponseElement(operation string, result int64) *etree.Element {
	el := etree.NewElement("calc:" + operation + "Response")
	el.CreateAttr("xmlns:calc", Namespace)
	el.CreateElement("calc:result").SetText(strconv.FormatInt(result, 10))
	return el
}

// ParseResponse reads the result from a response element
func ParseResponse(el *etree.Element) (int64, error) {
	if !strings.HasSuffix(el.Tag, "Response") {
		return 0, fmt.Errorf("not a calculator response element: %s", el.Tag)
	}
	resultElem := el.FindElement("./*[local-name()='result']")
	if resultElem == nil {
		return 0, fmt.Errorf("response has no result element")
	}
	v, err := strconv.ParseInt(strings.TrimSpace(resultElem.Text()), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid result: %w", err)
	}
	return v, nil
}
