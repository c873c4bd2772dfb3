package fertilizer

// ComputeDose interpolates the fertilizer requirement inside an STVI class:
//
//	Fr = Uf - (Ci / Cs) * (St - Ls)
//
// Uf is the upper limit of the recommended range, Ci its width, Cs the width of the
// class band, St the soil test value and Ls the band's lower limit. A zero-width band
// yields Uf. The result never goes below zero and is not rounded.
func ComputeDose(uf, ci, cs, st, ls float64) float64 {
	if cs == 0 {
		return uf
	}
	fr := uf - (ci/cs)*(st-ls)
	if fr < 0 {
		return 0
	}
	return fr
}
