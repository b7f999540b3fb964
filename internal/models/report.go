package models

import (
	"slices"
	"time"
)

// VerificationThreshold 达到该数量的独立验证后报告进入 Verified 状态
const VerificationThreshold = 3

// ReportStatus 报告的验证状态
type ReportStatus string

const (
	StatusPending  ReportStatus = "pending"
	StatusVerified ReportStatus = "verified"
)

type Report struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Category      Category  `json:"category"`
	Desa          string    `json:"desa"`
	Kecamatan     string    `json:"kecamatan"`
	Kabupaten     string    `json:"kabupaten"`
	Provinsi      string    `json:"provinsi"`
	Latitude      *float64  `json:"latitude,omitempty"`
	Longitude     *float64  `json:"longitude,omitempty"`
	ImageData     string    `json:"imageData,omitempty"`
	WalletAddress string    `json:"walletAddress"` // Reporter
	Verifications []string  `json:"verifications"` // 按验证顺序保存的钱包地址
	VerifiedCount int       `json:"verifiedCount"`
	IsVerified    bool      `json:"isVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	Comments      []Comment `json:"comments"`
}

// Status returns Pending or Verified.
func (r *Report) Status() ReportStatus {
	if r.IsVerified {
		return StatusVerified
	}
	return StatusPending
}

// HasVerified reports whether wallet is already in the verification set.
func (r *Report) HasVerified(wallet string) bool {
	return slices.Contains(r.Verifications, wallet)
}

// AddVerification appends wallet and recomputes the derived fields.
// Callers are responsible for the verification rules.
func (r *Report) AddVerification(wallet string) {
	r.Verifications = append(r.Verifications, wallet)
	r.Normalize()
}

// Normalize recomputes VerifiedCount and IsVerified from Verifications and
// replaces nil slices so the JSON shape stays stable.
func (r *Report) Normalize() {
	if r.Verifications == nil {
		r.Verifications = []string{}
	}
	if r.Comments == nil {
		r.Comments = []Comment{}
	}
	r.VerifiedCount = len(r.Verifications)
	r.IsVerified = r.VerifiedCount >= VerificationThreshold
}

// Clone returns a deep copy so a rejected mutation never leaks into shared state.
func (r *Report) Clone() *Report {
	c := *r
	c.Verifications = slices.Clone(r.Verifications)
	c.Comments = slices.Clone(r.Comments)
	if r.Latitude != nil {
		lat := *r.Latitude
		c.Latitude = &lat
	}
	if r.Longitude != nil {
		lng := *r.Longitude
		c.Longitude = &lng
	}
	return &c
}
