package ai

import (
	"encoding/base64"
	"strings"
)

// splitDataURI breaks "data:<mime>;base64,<payload>" into its parts.
func splitDataURI(uri string) (mime, payload string, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", "", &Error{Kind: KindUnknown, Message: "image attachment is not a data URI"}
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok || payload == "" {
		return "", "", &Error{Kind: KindUnknown, Message: "image attachment has no payload"}
	}
	mime, _, _ = strings.Cut(header, ";")
	if mime == "" {
		mime = "application/octet-stream"
	}
	return mime, payload, nil
}

func decodeDataURI(uri string) (mime string, data []byte, err error) {
	mime, payload, err := splitDataURI(uri)
	if err != nil {
		return "", nil, err
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, &Error{Kind: KindUnknown, Message: "image attachment is not valid base64", Err: err}
	}
	return mime, data, nil
}

// chatRole maps our roles onto the OpenAI-style names most HTTP APIs use.
func chatRole(role string) string {
	if role == RoleModel {
		return "assistant"
	}
	return "user"
}
