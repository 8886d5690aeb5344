package adapter

import (
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Canvas document namespaces.
const (
	CanvasNS       = "http://canvas.instructure.com/xsd/cccv1p0"
	CanvasSchema   = "http://canvas.instructure.com/xsd/cccv1p0 https://canvas.instructure.com/xsd/cccv1p0.xsd"
	XSINS          = "http://www.w3.org/2001/XMLSchema-instance"
	QTINS          = "http://www.imsglobal.org/xsd/ims_qtiasiv1p2"
	QTISchema      = "http://www.imsglobal.org/xsd/ims_qtiasiv1p2 http://www.imsglobal.org/xsd/ims_qtiasiv1p2p1.xsd"
	DiscussionNS   = "http://www.imsglobal.org/xsd/imsccv1p1/imsdt_v1p1"
	DiscussionXSD  = "http://www.imsglobal.org/xsd/imsccv1p1/imsdt_v1p1  http://www.imsglobal.org/profile/cc/ccv1p1/ccv1p1_imsdt_v1p1.xsd"
	workflowActive = "active"
)

// Namespace is the xmlns / xsi:schemaLocation attribute triple carried by
// every document root. Embed it after the root's own attributes.
//
// The attributes are declared literally so the marshaled root reads the
// way Canvas writes it; decoding ignores them.
type Namespace struct {
	Xmlns          string `xml:"xmlns,attr"`
	XSI            string `xml:"xmlns:xsi,attr"`
	SchemaLocation string `xml:"xsi:schemaLocation,attr"`
}

// CanvasNamespace returns the namespace attributes of Canvas settings
// documents.
func CanvasNamespace() Namespace {
	return Namespace{Xmlns: CanvasNS, XSI: XSINS, SchemaLocation: CanvasSchema}
}

// MarshalDocument renders v as an indented XML document with header and
// trailing newline.
func MarshalDocument(v any) ([]byte, error) {
	out, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", v, err)
	}
	doc := make([]byte, 0, len(xml.Header)+len(out)+1)
	doc = append(doc, xml.Header...)
	doc = append(doc, out...)
	doc = append(doc, '\n')
	return doc, nil
}

// UnmarshalDocument decodes an XML document into v.
func UnmarshalDocument(data []byte, v any) error {
	if err := xml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %T: %w", v, err)
	}
	return nil
}

// FormatPoints renders points the way Canvas does ("10.0").
func FormatPoints(p int) string {
	return strconv.Itoa(p) + ".0"
}

// ParsePoints accepts "10", "10.0" and rounds fractional values.
func ParsePoints(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse points %q: %w", s, err)
	}
	return int(math.Round(f)), nil
}
