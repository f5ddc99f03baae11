package cart

import (
	"math"

	"github.com/shopspring/decimal"
)

// Shipping fees are a step function of the great-circle distance between the
// warehouse and the delivery location. Orders without a delivery location are
// picked up and ship for free.

// warehouse is the fixed origin all delivery distances are measured from.
var warehouse = Location{Lat: 30.0444, Lng: 31.2357}

const earthRadiusKm = 6371

var (
	feeNear = decimal.NewFromInt(15) // [0, 5) km
	feeMid  = decimal.NewFromInt(25) // [5, 10) km
	feeFar  = decimal.NewFromInt(35) // [10, 15) km
	feeMax  = decimal.NewFromInt(50) // 15 km and beyond
)

// ShippingFee returns the delivery fee for the given location, or zero when
// no location is set.
func ShippingFee(loc *Location) decimal.Decimal {
	if loc == nil {
		return decimal.Zero
	}

	switch km := DistanceKm(warehouse, *loc); {
	case km < 5:
		return feeNear
	case km < 10:
		return feeMid
	case km < 15:
		return feeFar
	default:
		return feeMax
	}
}

// DistanceKm returns the great-circle distance between two coordinates in
// kilometers, using the haversine formula.
func DistanceKm(a, b Location) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
