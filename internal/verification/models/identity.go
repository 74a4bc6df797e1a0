package models

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/mssola/useragent"
	"github.com/oklog/ulid/v2"
)

// Identity is a recorded (subject, fingerprint, address) triple. Once recorded it is
// never updated or expired.
type Identity struct {
	ID            string
	SubjectID     string
	Fingerprint   string
	SourceAddress string
	Metadata      Metadata
	RecordedAt    time.Time
}

// Metadata is carried alongside an identity for moderators. Correlation never reads it.
type Metadata struct {
	Components json.RawMessage `json:"components,omitempty"`
	UserAgent  string          `json:"user_agent,omitempty"`
	Client     ClientInfo      `json:"client"`
}

// ClientInfo is the parsed form of a User-Agent header.
type ClientInfo struct {
	Browser        string `json:"browser,omitempty"`
	BrowserVersion string `json:"browser_version,omitempty"`
	OS             string `json:"os,omitempty"`
	Platform       string `json:"platform,omitempty"`
	Mobile         bool   `json:"mobile"`
	Bot            bool   `json:"bot"`
}

// ParseClient extracts browser and OS details from a User-Agent header.
func ParseClient(userAgent string) ClientInfo {
	if strings.TrimSpace(userAgent) == "" {
		return ClientInfo{}
	}
	ua := useragent.New(userAgent)
	name, version := ua.Browser()
	return ClientInfo{
		Browser:        name,
		BrowserVersion: version,
		OS:             ua.OS(),
		Platform:       ua.Platform(),
		Mobile:         ua.Mobile(),
		Bot:            ua.Bot(),
	}
}

// NewMetadata bundles fingerprint components with the parsed user agent.
func NewMetadata(components json.RawMessage, userAgent string) Metadata {
	return Metadata{
		Components: components,
		UserAgent:  userAgent,
		Client:     ParseClient(userAgent),
	}
}

// Candidate is what a verification submission presents for correlation.
type Candidate struct {
	Fingerprint   string
	SourceAddress string
	Metadata      Metadata
}

// Validate rejects candidates that could never be correlated.
func (c Candidate) Validate() error {
	if c.Fingerprint == "" {
		return errors.New("fingerprint is required")
	}
	if c.SourceAddress == "" {
		return errors.New("source address is required")
	}
	return nil
}

// NewIdentity binds candidate to subjectID at now.
func NewIdentity(subjectID string, candidate Candidate, now time.Time) (*Identity, error) {
	if subjectID == "" {
		return nil, errors.New("subject id is required")
	}
	if err := candidate.Validate(); err != nil {
		return nil, err
	}
	return &Identity{
		ID:            ulid.Make().String(),
		SubjectID:     subjectID,
		Fingerprint:   candidate.Fingerprint,
		SourceAddress: candidate.SourceAddress,
		Metadata:      candidate.Metadata,
		RecordedAt:    now,
	}, nil
}

// MatchType names which signal tied a candidate to an existing identity.
type MatchType string

const (
	MatchNone        MatchType = ""
	MatchFingerprint MatchType = "fingerprint"
	MatchAddress     MatchType = "ip"
)

// CorrelationResult is NoMatch, FingerprintMatch or AddressMatch.
type CorrelationResult struct {
	Match    MatchType
	Existing *Identity
}

// NoMatch is the zero result.
func NoMatch() CorrelationResult {
	return CorrelationResult{Match: MatchNone}
}

// IsMatch reports whether an existing identity was found.
func (r CorrelationResult) IsMatch() bool {
	return r.Match != MatchNone
}
