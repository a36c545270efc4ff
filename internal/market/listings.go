package market

import "craftcheck/internal/model"

// FilterListings drops mannequin listings. A listing whose on-display flag
// is absent is treated as purchasable.
func FilterListings(listings []model.Listing) []model.Listing {
	valid := make([]model.Listing, 0, len(listings))
	for _, l := range listings {
		if l.OnMannequin != nil && *l.OnMannequin {
			continue
		}
		valid = append(valid, l)
	}
	return valid
}

// SplitByQuality partitions listings into NQ and HQ groups. Every listing
// lands in exactly one group.
func SplitByQuality(listings []model.Listing) (nq, hq []model.Listing) {
	for _, l := range listings {
		switch l.Quality() {
		case model.HQ:
			hq = append(hq, l)
		default:
			nq = append(nq, l)
		}
	}
	return nq, hq
}
