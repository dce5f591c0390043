package entity

// RawKline is the fixed internal shape of one exchange kline record.
// Prices and volumes keep the exchange's string representation; parsing
// happens in NormalizeKline so a bad record can be dropped on its own.
type RawKline struct {
	OpenTime                 int64 // Unix milliseconds
	Open                     string
	High                     string
	Low                      string
	Close                    string
	Volume                   string
	CloseTime                int64 // Unix milliseconds
	QuoteAssetVolume         string
	TradeNum                 int64
	TakerBuyBaseAssetVolume  string
	TakerBuyQuoteAssetVolume string
}
