package domain

// currencies maps the numeric ISO 4217 codes accepted by the gateway to
// their alphabetic form. The dialect tolerates both zero-padded and bare
// numeric codes for AUD.
var currencies = map[string]string{
	"36":  "AUD",
	"036": "AUD",
	"124": "CAD",
	"156": "CNY",
	"208": "DKK",
	"392": "JPY",
	"578": "NOK",
	"752": "SEK",
	"756": "CHF",
	"826": "GBP",
	"840": "USD",
	"953": "XPF",
	"978": "EUR",
}

// CurrencyAlpha resolves a numeric ISO 4217 code to its alphabetic form.
func CurrencyAlpha(numeric string) string {
	if alpha, ok := currencies[numeric]; ok {
		return alpha
	}
	return "UNKNOWN"
}

// CurrencySupported reports whether the gateway accepts the numeric code.
func CurrencySupported(numeric string) bool {
	_, ok := currencies[numeric]
	return ok
}
