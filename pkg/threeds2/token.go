package threeds2

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// FingerprintToken is the decoded token of a fingerprint action.
type FingerprintToken struct {
	DirectoryServerID               string `json:"directoryServerId"`
	DirectoryServerPublicKey        string `json:"directoryServerPublicKey"`
	DirectoryServerRootCertificates string `json:"directoryServerRootCertificates,omitempty"`
	ThreeDSMessageVersion           string `json:"threeDSMessageVersion,omitempty"`
	ThreeDSServerTransID            string `json:"threeDSServerTransID"`
}

// ChallengeToken is the decoded token of a challenge action.
type ChallengeToken struct {
	ACSReferenceNumber   string `json:"acsReferenceNumber"`
	ACSSignedContent     string `json:"acsSignedContent"`
	ACSTransID           string `json:"acsTransID"`
	ACSURL               string `json:"acsURL,omitempty"`
	MessageVersion       string `json:"messageVersion,omitempty"`
	ThreeDSServerTransID string `json:"threeDSServerTransID"`
}

// DecodeFingerprintToken decodes a base64 JSON fingerprint token.
func DecodeFingerprintToken(token string) (FingerprintToken, error) {
	var t FingerprintToken
	if err := decodeBase64JSON(token, &t); err != nil {
		return FingerprintToken{}, fmt.Errorf("decode fingerprint token: %w", err)
	}
	if t.DirectoryServerID == "" || t.ThreeDSServerTransID == "" {
		return FingerprintToken{}, errors.New("decode fingerprint token: missing directoryServerId or threeDSServerTransID")
	}
	return t, nil
}

// DecodeChallengeToken decodes a base64 JSON challenge token.
func DecodeChallengeToken(token string) (ChallengeToken, error) {
	var t ChallengeToken
	if err := decodeBase64JSON(token, &t); err != nil {
		return ChallengeToken{}, fmt.Errorf("decode challenge token: %w", err)
	}
	if t.ACSTransID == "" || t.ThreeDSServerTransID == "" {
		return ChallengeToken{}, errors.New("decode challenge token: missing acsTransID or threeDSServerTransID")
	}
	return t, nil
}

// Fingerprint is the device fingerprint produced by the 3DS2 SDK.
type Fingerprint struct {
	SDKAppID           string          `json:"sdkAppID"`
	SDKEncData         string          `json:"sdkEncData"`
	SDKEphemPubKey     json.RawMessage `json:"sdkEphemPubKey"`
	SDKReferenceNumber string          `json:"sdkReferenceNumber"`
	SDKTransID         string          `json:"sdkTransID"`
	MessageVersion     string          `json:"messageVersion,omitempty"`
}

// Encode returns the base64 JSON form submitted as fingerprintResult.
func (f Fingerprint) Encode() (string, error) {
	return encodeBase64JSON(f)
}

func encodeBase64JSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// decodeBase64JSON accepts padded or unpadded standard and URL alphabets.
func decodeBase64JSON(s string, v any) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("empty value")
	}
	var (
		data []byte
		err  error
	)
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.RawStdEncoding,
		base64.URLEncoding, base64.RawURLEncoding,
	} {
		if data, err = enc.DecodeString(s); err == nil {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("invalid base64: %w", err)
	}
	return json.Unmarshal(data, v)
}
