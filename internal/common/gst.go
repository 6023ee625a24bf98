package common

import (
	"regexp"
	"strconv"
)

var gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z]{1}[1-9A-Z]{1}Z[0-9A-Z]{1}$`)

const gstinAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// IsValidGSTINFormat reports whether gstin matches the 15-character GSTIN
// layout: state code, PAN, entity code, default 'Z', check character.
func IsValidGSTINFormat(gstin string) bool {
	return gstinPattern.MatchString(gstin)
}

// IsValidGSTINChecksum verifies the MOD-36 check character of a GSTIN.
func IsValidGSTINChecksum(gstin string) bool {
	if len(gstin) != 15 {
		return false
	}

	sum := 0
	factor := 2
	for i := len(gstin) - 2; i >= 0; i-- {
		code := indexOf(gstin[i])
		if code < 0 {
			return false
		}
		product := code * factor
		if factor == 2 {
			factor = 1
		} else {
			factor = 2
		}
		sum += product/36 + product%36
	}

	checkCode := (36 - sum%36) % 36
	return gstinAlphabet[checkCode] == gstin[len(gstin)-1]
}

// StateCodeFromGSTIN extracts the two-digit state code prefix.
func StateCodeFromGSTIN(gstin string) int {
	if len(gstin) < 2 {
		return 0
	}
	code, _ := strconv.Atoi(gstin[:2])
	return code
}

func indexOf(ch byte) int {
	for i := 0; i < len(gstinAlphabet); i++ {
		if gstinAlphabet[i] == ch {
			return i
		}
	}
	return -1
}
