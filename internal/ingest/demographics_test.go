package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDemographicsCSV(t *testing.T) {
	csv := strings.Join([]string{
		"City,State,Population,Median Income,Growth Rate",
		"lakeland,fl,\"112,641\",55234,0.021",
		"Winter Haven,FL,49219,,",
	}, "\n")

	profiles, err := LoadDemographicsCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	assert.Equal(t, "Lakeland", profiles[0].City)
	assert.Equal(t, "FL", profiles[0].State)
	assert.Equal(t, 112641, profiles[0].Population)
	require.NotNil(t, profiles[0].MedianIncome)
	assert.InDelta(t, 55234, *profiles[0].MedianIncome, 1e-9)
	require.NotNil(t, profiles[0].GrowthRate)
	assert.InDelta(t, 0.021, *profiles[0].GrowthRate, 1e-9)

	assert.Equal(t, "Winter Haven", profiles[1].City)
	assert.Nil(t, profiles[1].MedianIncome)
	assert.Nil(t, profiles[1].GrowthRate)
}

func TestLoadDemographicsCSVSkipsIncompleteRows(t *testing.T) {
	csv := strings.Join([]string{
		"city,state,population",
		",FL,1000",
		"Tampa,,2000",
		"Orlando,FL,307573",
	}, "\n")

	profiles, err := LoadDemographicsCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "Orlando", profiles[0].City)
}

func TestLoadDemographicsCSVMissingColumns(t *testing.T) {
	csv := "city,median_income\nTampa,60000"

	_, err := LoadDemographicsCSV(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required columns")
}

func TestLoadDemographicsCSVEmpty(t *testing.T) {
	_, err := LoadDemographicsCSV(strings.NewReader(""))
	require.Error(t, err)
}

func TestMapColumnsHeaderVariants(t *testing.T) {
	cols, err := mapColumns([]string{" City ", "STATE", "population", "MedianIncome", "growth rate"})
	require.NoError(t, err)
	assert.Equal(t, 0, cols.city)
	assert.Equal(t, 1, cols.state)
	assert.Equal(t, 2, cols.population)
	assert.Equal(t, 3, cols.medianIncome)
	assert.Equal(t, 4, cols.growthRate)
}
