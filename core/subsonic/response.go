package subsonic

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
)

// ErrorCode is the closed set of protocol error codes. Internal failure
// detail never leaves the server; clients only ever see one of these.
type ErrorCode int

const (
	CodeGeneric          ErrorCode = 0
	CodeMissingParameter ErrorCode = 10
	CodeAuthentication   ErrorCode = 40
	CodeNotAuthorized    ErrorCode = 50
	CodeNotFound         ErrorCode = 70
)

// Error is the structured error element of a failed response.
type Error struct {
	XMLName xml.Name  `xml:"error" json:"-"`
	Code    ErrorCode `xml:"code,attr" json:"code"`
	Message string    `xml:"message,attr" json:"message"`
}

const xmlns = "http://subsonic.org/restapi"

// Response is the uniform envelope wrapping every protocol reply. Payload
// types carry their own XMLName; PayloadName names the same payload in the
// JSON rendering (the two differ for list endpoints, a protocol quirk).
type Response struct {
	Status        string
	Version       string
	Type          string
	ServerVersion string
	OpenSubsonic  bool

	Error *Error

	PayloadName string
	Payload     interface{}
}

// ServerInfo is the identity stamped on every envelope.
type ServerInfo struct {
	Version       string // protocol version
	Type          string // server type string
	ServerVersion string // server build version
}

// NewResponse returns a success envelope with no payload.
func NewResponse(info ServerInfo) *Response {
	return &Response{
		Status:        "ok",
		Version:       info.Version,
		Type:          info.Type,
		ServerVersion: info.ServerVersion,
		OpenSubsonic:  true,
	}
}

// NewErrorResponse returns a failed envelope carrying one of the closed
// error codes.
func NewErrorResponse(info ServerInfo, code ErrorCode, message string) *Response {
	resp := NewResponse(info)
	resp.Status = "failed"
	resp.Error = &Error{Code: code, Message: message}
	return resp
}

// WithPayload attaches a named payload. The payload may be a scalar, a
// struct or a collection container; absent payloads are legal (pure status
// replies).
func (r *Response) WithPayload(name string, payload interface{}) *Response {
	r.PayloadName = name
	r.Payload = payload
	return r
}

// MarshalJSON renders the {"subsonic-response": {...}} shape.
func (r *Response) MarshalJSON() ([]byte, error) {
	body := map[string]interface{}{
		"status":        r.Status,
		"version":       r.Version,
		"type":          r.Type,
		"serverVersion": r.ServerVersion,
		"openSubsonic":  r.OpenSubsonic,
	}
	if r.Error != nil {
		body["error"] = r.Error
	}
	if r.PayloadName != "" {
		body[r.PayloadName] = r.Payload
	}
	return json.Marshal(map[string]interface{}{"subsonic-response": body})
}

// MarshalXML renders the <subsonic-response> element with the payload as
// its child. Payload types name their own element via XMLName.
func (r *Response) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	start := xml.StartElement{
		Name: xml.Name{Local: "subsonic-response"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns"}, Value: xmlns},
			{Name: xml.Name{Local: "status"}, Value: r.Status},
			{Name: xml.Name{Local: "version"}, Value: r.Version},
			{Name: xml.Name{Local: "type"}, Value: r.Type},
			{Name: xml.Name{Local: "serverVersion"}, Value: r.ServerVersion},
			{Name: xml.Name{Local: "openSubsonic"}, Value: fmt.Sprintf("%t", r.OpenSubsonic)},
		},
	}

	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if r.Error != nil {
		if err := e.Encode(r.Error); err != nil {
			return err
		}
	}
	if r.Payload != nil {
		if err := e.Encode(r.Payload); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}
