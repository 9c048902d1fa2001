package tfidf

import (
	"sort"
)

// Pair is a term id with its count or weight.
type Pair struct {
	ID    int
	Value float64
}

// Dictionary maps terms to dense integer ids and tracks document frequencies.
type Dictionary struct {
	ids     map[string]int
	terms   []string
	dfs     []int
	numDocs int
}

// NewDictionary builds a dictionary from tokenized documents. Ids follow
// lexical term order so that the same corpus always yields the same ids.
func NewDictionary(docs [][]string) *Dictionary {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{}, len(doc))
		for _, tok := range doc {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	d := &Dictionary{numDocs: len(docs)}
	d.reset(terms, df)
	return d
}

func (d *Dictionary) reset(terms []string, df map[string]int) {
	d.ids = make(map[string]int, len(terms))
	d.terms = terms
	d.dfs = make([]int, len(terms))
	for i, t := range terms {
		d.ids[t] = i
		d.dfs[i] = df[t]
	}
}

// FilterExtremes drops terms found in fewer than noBelow documents or in more
// than noAbove (a fraction) of them. noBelow may be fractional, then keeps at most keepN of the most
// frequent remaining terms. keepN <= 0 keeps everything. Ids are reassigned.
func (d *Dictionary) FilterExtremes(noBelow, noAbove float64, keepN int) {
	maxDocs := noAbove * float64(d.numDocs)
	df := make(map[string]int)
	var kept []string
	for i, t := range d.terms {
		n := d.dfs[i]
		if float64(n) < noBelow || float64(n) > maxDocs {
			continue
		}
		kept = append(kept, t)
		df[t] = n
	}
	if keepN > 0 && len(kept) > keepN {
		sort.SliceStable(kept, func(i, j int) bool { return df[kept[i]] > df[kept[j]] })
		kept = kept[:keepN]
		sort.Strings(kept)
	}
	d.reset(kept, df)
}

// Len returns the number of terms.
func (d *Dictionary) Len() int { return len(d.terms) }

// NumDocs returns the number of documents the dictionary was built from.
func (d *Dictionary) NumDocs() int { return d.numDocs }

// Term returns the term with the given id.
func (d *Dictionary) Term(id int) string { return d.terms[id] }

// ID returns the id of term.
func (d *Dictionary) ID(term string) (int, bool) {
	id, ok := d.ids[term]
	return id, ok
}

// DocFreq returns the number of documents containing the term with the given id.
func (d *Dictionary) DocFreq(id int) int { return d.dfs[id] }

// Doc2Bow converts a token sequence into sorted (id, count) pairs. Unknown tokens are ignored.
func (d *Dictionary) Doc2Bow(doc []string) []Pair {
	counts := make(map[int]float64)
	for _, tok := range doc {
		if id, ok := d.ids[tok]; ok {
			counts[id]++
		}
	}
	bow := make([]Pair, 0, len(counts))
	for id, c := range counts {
		bow = append(bow, Pair{ID: id, Value: c})
	}
	sort.Slice(bow, func(i, j int) bool { return bow[i].ID < bow[j].ID })
	return bow
}
