package ports

import (
	"context"

	"kisanrakshak/domain/mandi"
	"kisanrakshak/domain/weather"
)

// PriceSource fetches mandi price records, sorted by arrival date then modal price
type PriceSource interface {
	Fetch(ctx context.Context, q mandi.Query) (*mandi.FetchResult, error)
}

// WeatherSource fetches step forecasts
type WeatherSource interface {
	Forecast(ctx context.Context, loc weather.Location) (*weather.Forecast, error)
}
