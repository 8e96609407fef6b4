package model

// Asset is a selectable symbol with a display label.
type Asset struct {
	Label  string `json:"label" yaml:"label"`
	Symbol string `json:"symbol" yaml:"symbol"`
}

// AssetMenu lists the preset choices for each bucket and the benchmark.
type AssetMenu struct {
	RealEstate []Asset `json:"real_estate" yaml:"real_estate"`
	Stocks     []Asset `json:"stocks" yaml:"stocks"`
	Cash       []Asset `json:"cash" yaml:"cash"`
	Benchmark  []Asset `json:"benchmark" yaml:"benchmark"`
}

// DefaultAssetMenu is the built-in menu used when the config does not define one.
func DefaultAssetMenu() AssetMenu {
	return AssetMenu{
		RealEstate: []Asset{
			{"VNQ (Real Estate ETF)", "VNQ"},
			{"IYR (US Real Estate ETF)", "IYR"},
		},
		Stocks: []Asset{
			{"QQQ (Nasdaq 100)", "QQQ"},
			{"SPY (S&P 500)", "SPY"},
			{"VTI (Total US Market)", "VTI"},
			{"VT (Total World)", "VT"},
			{"QLD (2x QQQ)", "QLD"},
			{"TQQQ (3x QQQ)", "TQQQ"},
			{"0050.TW (Taiwan 50)", "0050.TW"},
		},
		Cash: []Asset{
			{"TBIL (3-Month Treasury)", "TBIL"},
			{"BIL (1-3 Month T-Bill)", "BIL"},
			{"SHV (Short Treasury)", "SHV"},
			{"VGSH (Short-Term Treasury)", "VGSH"},
			{"IEF (7-10 Year Treasury)", "IEF"},
		},
		Benchmark: []Asset{
			{"SPY (S&P 500)", "SPY"},
			{"QQQ (Nasdaq 100)", "QQQ"},
			{"VT (Total World)", "VT"},
			{"0050.TW (Taiwan 50)", "0050.TW"},
			{"VTI (Total US Market)", "VTI"},
		},
	}
}
