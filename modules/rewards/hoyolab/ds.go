package hoyolab

import (
	"crypto/md5" //nolint:gosec // the service defines the checksum as MD5
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"time"
)

const dsAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// dynamicSecret builds the DS header required by the game record API:
// "<unix time>,<6 random letters>,<md5 of salt, time and random>".
func dynamicSecret(salt string, now time.Time, rnd *rand.Rand) string {
	r := make([]byte, 6)
	for i := range r {
		r[i] = dsAlphabet[rnd.IntN(len(dsAlphabet))]
	}
	t := now.Unix()
	sum := md5.Sum(fmt.Appendf(nil, "salt=%s&t=%d&r=%s", salt, t, r)) //nolint:gosec
	return fmt.Sprintf("%d,%s,%s", t, r, hex.EncodeToString(sum[:]))
}

// serverForProfile derives the region server from the first digit of a
// sub-profile ID.
func serverForProfile(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("hoyolab: empty sub-profile id")
	}
	switch id[0] {
	case '6':
		return "os_usa", nil
	case '7':
		return "os_euro", nil
	case '8':
		return "os_asia", nil
	case '9':
		return "os_cht", nil
	}
	return "", fmt.Errorf("hoyolab: sub-profile %s has no overseas server", id)
}
