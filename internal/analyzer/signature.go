package analyzer

import "strings"

const (
	// FormatSignature is the magic marker every HE3 backup begins with.
	FormatSignature = "HE3"

	signatureLen = 3
	versionLen   = 4
)

// validateSignature checks the leading magic marker and reads the 4-byte
// format-version tag that follows it. Decoding is lossy: non-ASCII bytes
// pass through unchanged and padding (NUL bytes, whitespace) is trimmed
// from the version.
func validateSignature(data []byte) (signature string, version string, err error) {
	if len(data) < signatureLen || string(data[:signatureLen]) != FormatSignature {
		return "", "", ErrInvalidSignature
	}

	end := signatureLen + versionLen
	if end > len(data) {
		end = len(data)
	}
	version = strings.Trim(string(data[signatureLen:end]), "\x00 \t\r\n")

	return FormatSignature, version, nil
}
