package ercot

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEndpoint(t *testing.T) {
	spec, ok := GetEndpoint("da_prices")
	require.True(t, ok)
	assert.Equal(t, "da_prices", spec.Name)
	assert.Equal(t, "deliveryDate", spec.DateKey)
	assert.Equal(t, "prices", spec.Category)
	assert.True(t, strings.HasPrefix(spec.URL, "https://api.ercot.com/api/public-reports/"))
	assert.Equal(t, 100000, spec.DefaultSize)

	_, ok = GetEndpoint("nonsense")
	assert.False(t, ok)
}

func TestValidEndpoint(t *testing.T) {
	assert.True(t, ValidEndpoint("rt_prices"))
	assert.False(t, ValidEndpoint("rt_pricez"))
}

func TestHasParameter(t *testing.T) {
	spec, _ := GetEndpoint("da_prices")
	assert.True(t, spec.HasParameter("settlementPoint"))
	assert.True(t, spec.HasParameter("postedDatetimeTo"))
	assert.True(t, spec.HasParameter("size"))
	assert.True(t, spec.HasParameter("page"))
	assert.False(t, spec.HasParameter("resourceType"))

	sced, _ := GetEndpoint("sced_gen_data")
	assert.True(t, sced.HasParameter("resourceType"))
	assert.False(t, sced.HasParameter("settlementPoint"))
}

func TestListEndpoints(t *testing.T) {
	all := ListEndpoints("all")
	require.GreaterOrEqual(t, len(all), 23)
	assert.True(t, sort.SliceIsSorted(all, func(i, j int) bool { return all[i].Name < all[j].Name }))

	prices := ListEndpoints("prices")
	require.NotEmpty(t, prices)
	for _, e := range prices {
		assert.Equal(t, "prices", e.Category)
	}
	assert.Less(t, len(prices), len(all))

	assert.Empty(t, ListEndpoints("no_such_category"))
}

func TestCategories(t *testing.T) {
	cats := Categories()
	assert.Contains(t, cats, "prices")
	assert.Contains(t, cats, "forecasts")
	assert.Contains(t, cats, "actuals")
	assert.True(t, sort.StringsAreSorted(cats))
}

func TestFiveMinuteEndpointsUseSmallerPages(t *testing.T) {
	for _, name := range []string{"rt_prices", "wind_prod_5min", "solar_prod_5min", "sced_gen_data", "rt_system_lambda"} {
		spec, ok := GetEndpoint(name)
		require.True(t, ok, name)
		assert.Equal(t, 50000, spec.DefaultSize, name)
	}
}
