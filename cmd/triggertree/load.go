package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ezachrisen/triggertree"
	"github.com/ezachrisen/triggertree/expr"
	"gopkg.in/yaml.v3"
)

// TriggerFile is the YAML document listing the triggers to load.
//
//	triggers:
//	  - expr: exists(user) && age > 18
//	    action: adult
//	  - expr: exists(x.zip)
//	    action: has-zip
//	    quantifiers:
//	      - variable: x
//	        type: any
//	        bindings: [user.home, user.work]
type TriggerFile struct {
	Triggers []TriggerSpec `yaml:"triggers"`
}

// TriggerSpec is one trigger in a TriggerFile.
type TriggerSpec struct {
	Expr        string            `yaml:"expr"`
	Action      any               `yaml:"action"`
	Quantifiers []expr.Quantifier `yaml:"quantifiers,omitempty"`
}

func readTriggerFile(r io.Reader) (*TriggerFile, error) {
	var f TriggerFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding trigger file: %w", err)
	}
	return &f, nil
}

// addTriggers adds every trigger of the file to the tree, stopping at the
// first error.
func addTriggers(t *triggertree.Tree, f *TriggerFile) error {
	for i, spec := range f.Triggers {
		action := spec.Action
		if action == nil {
			action = spec.Expr
		}
		if _, err := t.AddTrigger(spec.Expr, action, spec.Quantifiers...); err != nil {
			return fmt.Errorf("trigger %d: %w", i+1, err)
		}
	}
	return nil
}

func loadTriggers(t *triggertree.Tree, path string) error {
	fh, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fh.Close()
	f, err := readTriggerFile(fh)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return addTriggers(t, f)
}

// readFrame decodes a JSON object. Numbers are decoded as float64.
func readFrame(r io.Reader) (map[string]any, error) {
	var frame map[string]any
	if err := json.NewDecoder(r).Decode(&frame); err != nil {
		return nil, fmt.Errorf("decoding frame: %w", err)
	}
	return frame, nil
}

func loadFrame(path string) (map[string]any, error) {
	if path == "-" {
		return readFrame(os.Stdin)
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return readFrame(fh)
}
