package qdrant

import "testing"

func TestEncodeSparseQueryDeterministic(t *testing.T) {
	v1 := encodeSparseQuery("attention is all you need")
	v2 := encodeSparseQuery("attention is all you need")
	if len(v1.Indices) != len(v2.Indices) || len(v1.Values) != len(v2.Values) {
		t.Fatalf("vector sizes mismatch: v1=%d/%d v2=%d/%d", len(v1.Indices), len(v1.Values), len(v2.Indices), len(v2.Values))
	}
	for i := range v1.Indices {
		if v1.Indices[i] != v2.Indices[i] {
			t.Fatalf("indices mismatch at %d: %d vs %d", i, v1.Indices[i], v2.Indices[i])
		}
		if v1.Values[i] != v2.Values[i] {
			t.Fatalf("values mismatch at %d: %f vs %f", i, v1.Values[i], v2.Values[i])
		}
	}
}

func TestEncodeSparseQuerySortsIndices(t *testing.T) {
	v := encodeSparseQuery("zulu alpha beta gamma transformer")
	if len(v.Indices) == 0 {
		t.Fatalf("expected non-empty sparse vector")
	}
	for i := 1; i < len(v.Indices); i++ {
		if v.Indices[i-1] > v.Indices[i] {
			t.Fatalf("indices not sorted at %d: %d > %d", i, v.Indices[i-1], v.Indices[i])
		}
	}
}

func TestEncodeSparseQueryEmptyNoiseInput(t *testing.T) {
	v := encodeSparseQuery("___---!!!")
	if len(v.Indices) != 0 || len(v.Values) != 0 {
		t.Fatalf("expected empty sparse vector, got %+v", v)
	}
}

func TestEncodeSparseChunkTitleBoost(t *testing.T) {
	plain := encodeSparseChunk("retrieval", "", "")
	boosted := encodeSparseChunk("retrieval", "retrieval", "")
	if len(plain.Values) != 1 || len(boosted.Values) != 1 {
		t.Fatalf("expected single-term vectors, got %d and %d terms", len(plain.Values), len(boosted.Values))
	}
	if boosted.Values[0] <= plain.Values[0] {
		t.Fatalf("expected title occurrence to raise term weight: plain=%f boosted=%f", plain.Values[0], boosted.Values[0])
	}
}

func TestTokenizeAlphaNumSplitsOnPunctuation(t *testing.T) {
	tokens := tokenizeAlphaNum("BERT-large, fine-tuning v2.0")
	foundBert := false
	foundNum := false
	for _, tok := range tokens {
		if tok == "bert" {
			foundBert = true
		}
		if tok == "0" {
			foundNum = true
		}
	}
	if !foundBert || !foundNum {
		t.Fatalf("expected bert and 0 tokens, got %v", tokens)
	}
}
