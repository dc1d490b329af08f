package weather

// Category is the coarse weather class used to pick a presentation theme.
type Category string

const (
	CategoryClear        Category = "clear"
	CategoryCloudy       Category = "cloudy"
	CategoryRain         Category = "rain"
	CategorySnow         Category = "snow"
	CategoryThunderstorm Category = "thunderstorm"
)

// Classify maps a WMO weather code to a Category. Unlisted codes, negative
// ones included, fall back to CategoryClear.
func Classify(code int) Category {
	switch code {
	case 0:
		return CategoryClear
	case 1, 2, 3, 45, 48:
		return CategoryCloudy
	case 51, 53, 55, 61, 63, 65, 66, 67, 80, 81, 82:
		return CategoryRain
	case 71, 73, 75, 77:
		return CategorySnow
	case 95, 96, 99:
		return CategoryThunderstorm
	default:
		return CategoryClear
	}
}

// Theme is the CSS class the page applies for this category.
func (c Category) Theme() string {
	return "bg-" + string(c)
}
