package wddr

// DramState mirrors the small set of LPDDR4 mode registers the
// firmware must keep consistent. It is mutated only via DFI-MRW
// packets (base spec §3).
type DramState struct {
	FspWr     uint8
	FspOp     uint8
	Vrcg      bool
	CBTEnter  bool
	WriteLvl  bool
}
