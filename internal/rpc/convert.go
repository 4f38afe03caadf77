package rpc

import (
	"encoding/json"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/GriffinCanCode/snapocr/internal/ocr"
	"github.com/GriffinCanCode/snapocr/internal/screen"
)

// ResultToStruct encodes an OCR result using its JSON field names.
func ResultToStruct(res *ocr.Result) (*structpb.Struct, error) {
	var m map[string]any
	if err := roundTrip(res, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

// StructToResult decodes a Struct produced by ResultToStruct.
func StructToResult(s *structpb.Struct) (*ocr.Result, error) {
	res := &ocr.Result{}
	if err := roundTrip(s.AsMap(), res); err != nil {
		return nil, err
	}
	return res, nil
}

// RecordsToList encodes capture records using their JSON field names.
func RecordsToList(records []screen.Record) (*structpb.ListValue, error) {
	var items []any
	if err := roundTrip(records, &items); err != nil {
		return nil, err
	}
	return structpb.NewList(items)
}

// ListToRecords decodes a ListValue produced by RecordsToList.
func ListToRecords(l *structpb.ListValue) ([]screen.Record, error) {
	records := []screen.Record{}
	if err := roundTrip(l.AsSlice(), &records); err != nil {
		return nil, err
	}
	return records, nil
}

func roundTrip(in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
