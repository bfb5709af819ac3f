package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strconv"

	"github.com/matzehuels/orrery/pkg/celestial"
)

// layoutDigest fingerprints an ordered object set under a view mode and a
// configuration fingerprint. Every field that can change a layout is written,
// floats in shortest round-trip form, so NaN or infinite inputs still get a
// key of their own.
func layoutDigest(mode string, objects []celestial.Object, fingerprint string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%q %q %d\n", mode, fingerprint, len(objects))
	for _, o := range objects {
		fmt.Fprintf(h, "%q %q %q", o.ID, o.Name, o.Classification)
		writeFloats(h, o.Properties.RadiusKm, o.Properties.Mass)
		if orb := o.Orbit; orb != nil {
			fmt.Fprintf(h, " orbit %q", orb.ParentID)
			writeFloats(h, orb.SemiMajorAxisAU, orb.Eccentricity, orb.Inclination, orb.OrbitalPeriod)
		}
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeFloats(h hash.Hash, vs ...float64) {
	for _, v := range vs {
		h.Write([]byte{' '})
		h.Write([]byte(strconv.FormatFloat(v, 'g', -1, 64)))
	}
}

// Hash returns the hex SHA-256 of data. The file cache shards on it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
