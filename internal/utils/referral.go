package utils

import (
    "crypto/rand"
    "strings"
)

// referral codes use an unambiguous alphabet (no 0/O, 1/I) so they
// survive being read aloud or copied from a screenshot.
const referralAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewReferralCode returns an 8-character share code for a new account.
func NewReferralCode() (string, error) {
    buf := make([]byte, 8)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    var b strings.Builder
    for _, c := range buf {
        b.WriteByte(referralAlphabet[int(c)%len(referralAlphabet)])
    }
    return b.String(), nil
}
