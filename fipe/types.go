package fipe

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Code is an identifier as returned by the reference-price service. Brand
// and year codes arrive as strings while model codes arrive as numbers.
type Code string

func (c *Code) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Code(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("fipe: code %s is neither string nor number", data)
	}
	*c = Code(n.String())
	return nil
}

// Entry is a named item in one of the lookup lists.
type Entry struct {
	Name string `json:"nome"`
	Code Code   `json:"codigo"`
}

type modelsResponse struct {
	Models []Entry `json:"modelos"`
}

// Quote is the priced year-variant of a model.
type Quote struct {
	Value          string `json:"Valor"`
	Brand          string `json:"Marca"`
	Model          string `json:"Modelo"`
	ModelYear      int    `json:"AnoModelo"`
	Fuel           string `json:"Combustivel"`
	FipeCode       string `json:"CodigoFipe"`
	ReferenceMonth string `json:"MesReferencia"`
}
