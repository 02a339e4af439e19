package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	u "arkana/internal/utils"
)

func TestPDFCacheDisabled(t *testing.T) {
	assert.Nil(t, pdfCache(u.PriceListConfig{Enabled: false, RedisHost: "localhost:6379"}))
	assert.Nil(t, pdfCache(u.PriceListConfig{Enabled: true}))
}

func TestPDFCacheConfigured(t *testing.T) {
	rdb := pdfCache(u.PriceListConfig{Enabled: true, RedisHost: "localhost:6390", RedisDB: 3})
	require.NotNil(t, rdb)
	defer rdb.Close()
	assert.Equal(t, "localhost:6390", rdb.Options().Addr)
	assert.Equal(t, 3, rdb.Options().DB)
}
