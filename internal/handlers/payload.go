package handlers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"suarawarga/internal/services"
)

// flexFloat accepts a JSON number, a numeric string, "" or null.
// Blank values leave the coordinate absent.
type flexFloat struct {
	value *float64
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		f.value = nil
		return nil
	}

	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		str = strings.TrimSpace(str)
		if str == "" {
			f.value = nil
			return nil
		}
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return fmt.Errorf("coordinate %q is not a number", str)
		}
		f.value = &v
		return nil
	}

	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	f.value = &v
	return nil
}

type createReportRequest struct {
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Desa          string    `json:"desa"`
	Kecamatan     string    `json:"kecamatan"`
	Kabupaten     string    `json:"kabupaten"`
	Provinsi      string    `json:"provinsi"`
	Latitude      flexFloat `json:"latitude"`
	Longitude     flexFloat `json:"longitude"`
	ImageData     string    `json:"imageData"`
	WalletAddress string    `json:"walletAddress"`
}

func (r createReportRequest) input() services.ReportInput {
	return services.ReportInput{
		Title:         r.Title,
		Description:   r.Description,
		Category:      r.Category,
		Desa:          r.Desa,
		Kecamatan:     r.Kecamatan,
		Kabupaten:     r.Kabupaten,
		Provinsi:      r.Provinsi,
		Latitude:      r.Latitude.value,
		Longitude:     r.Longitude.value,
		ImageData:     r.ImageData,
		WalletAddress: r.WalletAddress,
	}
}

type verifyRequest struct {
	ReportID      string `json:"reportId"`
	WalletAddress string `json:"walletAddress"`
}

type commentRequest struct {
	ReportID      string `json:"reportId"`
	WalletAddress string `json:"walletAddress"`
	Text          string `json:"text"`
}

type walletRequest struct {
	WalletAddress string `json:"walletAddress"`
}
