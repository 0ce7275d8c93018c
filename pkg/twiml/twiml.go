/**
 * @description
 * Minimal builder for Twilio Voice TwiML responses. Only the verbs the
 * assistant needs are modeled: Say, Gather (speech input), Hangup and
 * Redirect. Verbs render in the order they were appended.
 *
 * @dependencies
 * - encoding/xml, strings: Standard Go libraries.
 */
package twiml

import (
	"encoding/xml"
	"strings"
)

// ContentType is the MIME type Twilio expects for TwiML documents.
const ContentType = "application/xml"

// Say speaks text to the caller.
type Say struct {
	XMLName  xml.Name `xml:"Say"`
	Language string   `xml:"language,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

// Gather collects speech input and posts the transcript to Action.
type Gather struct {
	XMLName       xml.Name `xml:"Gather"`
	Input         string   `xml:"input,attr"`
	Language      string   `xml:"language,attr,omitempty"`
	Action        string   `xml:"action,attr"`
	Method        string   `xml:"method,attr"`
	SpeechTimeout string   `xml:"speechTimeout,attr,omitempty"`
	Verbs         []interface{}
}

// Say nests a spoken prompt inside the gather.
func (g *Gather) Say(text, language string) *Gather {
	g.Verbs = append(g.Verbs, Say{Language: language, Text: text})
	return g
}

// Hangup terminates the call.
type Hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// Redirect transfers control to another webhook URL.
type Redirect struct {
	XMLName xml.Name `xml:"Redirect"`
	Method  string   `xml:"method,attr,omitempty"`
	URL     string   `xml:",chardata"`
}

// Response is the root TwiML document.
type Response struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []interface{}
}

// NewResponse creates an empty TwiML response.
func NewResponse() *Response {
	return &Response{}
}

// Say appends a spoken sentence.
func (r *Response) Say(text, language string) *Response {
	r.Verbs = append(r.Verbs, Say{Language: language, Text: text})
	return r
}

// Gather appends a speech gather posting to action and returns it so prompts
// can be nested.
func (r *Response) Gather(action string) *Gather {
	g := &Gather{
		Input:         "speech",
		Language:      "en-US",
		Action:        action,
		Method:        "POST",
		SpeechTimeout: "auto",
	}
	r.Verbs = append(r.Verbs, g)
	return g
}

// Hangup appends a hangup verb.
func (r *Response) Hangup() *Response {
	r.Verbs = append(r.Verbs, Hangup{})
	return r
}

// Redirect appends a redirect verb.
func (r *Response) Redirect(url string) *Response {
	r.Verbs = append(r.Verbs, Redirect{Method: "POST", URL: url})
	return r
}

// Render serializes the response as an XML document.
func (r *Response) Render() (string, error) {
	body, err := xml.Marshal(r)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(xml.Header)
	b.Write(body)
	return b.String(), nil
}
