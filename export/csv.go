package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"text2phenotype.com/kg/types"
	"text2phenotype.com/kg/utils"
)

var TripleColumns = []string{"subject", "relation", "object", "confidence", "source_file", "sentence"}

// FormatConfidence prints a confidence with at least one decimal.
func FormatConfidence(confidence float64) string {
	s := strconv.FormatFloat(confidence, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

func tripleRow(rec types.TripleRecord) []string {
	return []string{
		rec.Subject,
		rec.Relation,
		rec.Object,
		FormatConfidence(rec.Confidence),
		rec.SourceFile,
		rec.Sentence,
	}
}

func EncodeTriplesCSV(w io.Writer, records []types.TripleRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TripleColumns); err != nil {
		return err
	}
	for _, rec := range records {
		if err := cw.Write(tripleRow(rec)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteTriplesCSV(path string, records []types.TripleRecord) error {
	return utils.WriteFileAtomic(path, func(w io.Writer) error {
		return EncodeTriplesCSV(w, records)
	})
}
