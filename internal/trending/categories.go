package trending

import (
	"sort"
	"strconv"
	"strings"
)

// UnknownCategory is used for category ids absent from the lookup.
const UnknownCategory = "Unknown"

var categoryNames = map[int]string{
	1:  "Film and Animation",
	2:  "Autos and Vehicles",
	10: "Music",
	15: "Pet and Animal",
	17: "Sports",
	19: "Travel and Events",
	20: "Gaming",
	22: "People and Blogs",
	23: "Comedy",
	24: "Entertainment",
	25: "News and Politics",
	26: "How to and Style",
	27: "Education",
	28: "Science and Technology",
	29: "Non Profits and Activism",
	30: "Movies",
	43: "Shows",
}

// CategoryName maps a raw category id to its display name.
func CategoryName(id string) string {
	n, err := strconv.Atoi(strings.TrimSpace(id))
	if err != nil {
		return UnknownCategory
	}
	if name, ok := categoryNames[n]; ok {
		return name
	}
	return UnknownCategory
}

// CategoryIDs returns the known ids in ascending order.
func CategoryIDs() []int {
	ids := make([]int, 0, len(categoryNames))
	for id := range categoryNames {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
