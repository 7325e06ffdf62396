// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeWire(t *testing.T) {
	body := []byte(`{
	  "similar_patents": [{"publication_number": null, "title": "T", "abstract": "A",
	    "ipc_codes": ["X"], "orgname": "Org", "chunks": ["c1"], "similarity_score": 0.4}],
	  "total_found": 3, "similarity_threshold": 0.2
	}`)

	tests := []struct {
		variant    Variant
		wantChunks []string
	}{
		{VariantSimilarity, nil},
		{VariantChunks, []string{"c1"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.variant), func(t *testing.T) {
			r, err := DecodeWire(tt.variant, body)
			require.NoError(t, err)
			assert.Equal(t, tt.variant, r.Variant)
			assert.Equal(t, 3, r.TotalFound)
			assert.Nil(t, r.MaxResults)
			assert.Nil(t, r.EmbeddingDimension)
			require.Len(t, r.Patents, 1)
			assert.Equal(t, "", r.Patents[0].PublicationNumber)
			assert.Equal(t, "Org", r.Patents[0].Organization)
			assert.Equal(t, tt.wantChunks, r.Patents[0].Chunks)
			assert.NoError(t, r.Validate())
		})
	}
}

func TestDecodeWire_Errors(t *testing.T) {
	_, err := DecodeWire("bogus", []byte(`{}`))
	assert.Error(t, err)

	_, err = DecodeWire(VariantImages, []byte(`not json`))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		r       *SearchResponse
		wantErr bool
	}{
		{"nil", nil, true},
		{"unknown variant", &SearchResponse{Variant: "x"}, true},
		{"threshold out of range", &SearchResponse{Variant: VariantSimilarity, SimilarityThreshold: 1.5}, true},
		{"score out of range", &SearchResponse{Variant: VariantImages, Images: []RankedImage{{SimilarityScore: -0.1}}}, true},
		{"ok", &SearchResponse{Variant: VariantChunks, Patents: []RankedPatent{{SimilarityScore: 1}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.r.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLen(t *testing.T) {
	var nilResp *SearchResponse
	assert.Equal(t, 0, nilResp.Len())
	assert.Equal(t, 2, (&SearchResponse{Variant: VariantImages, Images: make([]RankedImage, 2), Patents: make([]RankedPatent, 5)}).Len())
}

func TestHistoryRecord_Response(t *testing.T) {
	var rec HistoryRecord
	r, err := rec.Response()
	assert.NoError(t, err)
	assert.Nil(t, r)

	rec.Payload = json.RawMessage("null")
	assert.False(t, rec.HasPayload())

	payload, err := json.Marshal(&SearchResponse{Variant: VariantChunks, TotalFound: 4, MaxResults: IntPtr(9)})
	require.NoError(t, err)
	rec.Payload = payload
	r, err = rec.Response()
	require.NoError(t, err)
	assert.Equal(t, VariantChunks, r.Variant)
	assert.Equal(t, 9, *r.MaxResults)
}
