// go-xcp
// Copyright (c) 2025 The Calibra Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-xcp.
//
// go-xcp is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-xcp is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-xcp; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Command memmap extracts user-defined global variables from an ELF
// firmware image and writes their addresses and types to a CSV file.
// The CSV is what a calibration front end loads to know which target
// addresses it may read and write through the gateway.
package main

import (
	"debug/dwarf"
	"debug/elf"
	"encoding/binary"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// excludePatterns filters out vendor HAL and other non-user-defined
// variables that firmware images are littered with.
var excludePatterns = compilePatterns([]string{
	`^RCC_.*`, `^GPIO_.*`, `^hspi`, `^tickstart$`, `^status$`, `^pllvco$`,
	`^pllp$`, `^pllsource$`, `^pllm$`, `^pid$`, `^length$`, `^addr$`,
	`^wait$`, `^prevTickFreq$`, `^prioritygroup$`, `^reg_value$`,
	`^stream_number$`, `^flagBitshiftOffset$`, `^timeout$`, `^regs$`,
	`^mask_cpltlevel$`, `^odr$`, `^bitstatus$`, `^position$`, `^ioposition$`,
	`^iocurrent$`, `^sysclockfreq$`, `^pll_config$`, `^pwrclkchanged$`,
	`^itsource$`, `^itflag$`, `^errorcode$`, `^abortcplt$`, `^txallowed$`,
	`^initial_TxXferCount$`, `^tmp_`, `^special`, `^hi2c`, `^dp`, `^__sbrk`,
})

// stdintNames maps C base type spellings to their stdint equivalents so
// the CSV is stable across compilers.
var stdintNames = map[string]string{
	"char":                   "int8_t",
	"signed char":            "int8_t",
	"unsigned char":          "uint8_t",
	"short":                  "int16_t",
	"short int":              "int16_t",
	"signed short":           "int16_t",
	"signed short int":       "int16_t",
	"short unsigned int":     "uint16_t",
	"unsigned short":         "uint16_t",
	"unsigned short int":     "uint16_t",
	"int":                    "int32_t",
	"signed int":             "int32_t",
	"unsigned int":           "uint32_t",
	"long":                   "int32_t",
	"long int":               "int32_t",
	"signed long":            "int32_t",
	"signed long int":        "int32_t",
	"long unsigned int":      "uint32_t",
	"unsigned long":          "uint32_t",
	"unsigned long int":      "uint32_t",
	"long long":              "int64_t",
	"long long int":          "int64_t",
	"signed long long":       "int64_t",
	"signed long long int":   "int64_t",
	"unsigned long long":     "uint64_t",
	"unsigned long long int": "uint64_t",
}

// variable is one row of the output table.
type variable struct {
	Name     string
	Address  string
	TypeName string
	Elements int64
}

func compilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return compiled
}

// userDefined reports whether a variable name is likely user-defined
// rather than vendor library state.
func userDefined(name string) bool {
	for _, pattern := range excludePatterns {
		if pattern.MatchString(name) {
			return false
		}
	}
	return true
}

// normalizeType converts a C type name to its stdint spelling. Pointer
// types keep their star, struct and typedef names pass through.
func normalizeType(typeName string) string {
	if base, ok := strings.CutSuffix(typeName, "*"); ok {
		base = strings.TrimSpace(base)
		if mapped, found := stdintNames[base]; found {
			return mapped + "*"
		}
		return typeName
	}
	if mapped, found := stdintNames[typeName]; found {
		return mapped
	}
	return typeName
}

// staticAddress decodes a DW_AT_location expression holding a single
// DW_OP_addr opcode with a 4-byte little-endian operand. Variables
// without a fixed address (registers, stack slots) return false.
func staticAddress(loc []byte) (uint32, bool) {
	const opAddr = 0x03
	if len(loc) < 5 || loc[0] != opAddr {
		return 0, false
	}
	return binary.LittleEndian.Uint32(loc[1:5]), true
}

// describeType resolves a DWARF type into an element count and a
// normalized type name. Arrays report their length and element type;
// everything else is a single element.
func describeType(t dwarf.Type) (int64, string) {
	switch typ := t.(type) {
	case *dwarf.ArrayType:
		count := typ.Count
		if count < 1 {
			count = 1
		}
		_, name := describeType(typ.Type)
		return count, name
	case *dwarf.TypedefType:
		return describeType(typ.Type)
	case *dwarf.QualType:
		return describeType(typ.Type)
	case *dwarf.PtrType:
		if typ.Type == nil {
			return 1, "void*"
		}
		_, name := describeType(typ.Type)
		return 1, name + "*"
	case *dwarf.StructType:
		if typ.StructName != "" {
			return 1, typ.StructName
		}
		return 1, typ.Kind
	case *dwarf.VoidType:
		return 1, "void"
	case nil:
		return 1, "Unknown"
	default:
		if name := t.Common().Name; name != "" {
			return 1, normalizeType(name)
		}
		return 1, "Unknown"
	}
}

// collectVariables walks every compilation unit and returns the
// user-defined globals that have a static address.
func collectVariables(data *dwarf.Data, log logrus.FieldLogger) ([]variable, error) {
	var vars []variable
	reader := data.Reader()
	for {
		entry, err := reader.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to walk DWARF entries: %w", err)
		}
		if entry == nil {
			return vars, nil
		}
		if entry.Tag != dwarf.TagVariable {
			continue
		}

		name, _ := entry.Val(dwarf.AttrName).(string)
		loc, _ := entry.Val(dwarf.AttrLocation).([]byte)
		if name == "" || loc == nil || !userDefined(name) {
			continue
		}
		addr, ok := staticAddress(loc)
		if !ok {
			continue
		}

		elements := int64(1)
		typeName := "Unknown"
		if off, hasType := entry.Val(dwarf.AttrType).(dwarf.Offset); hasType {
			typ, typeErr := data.Type(off)
			if typeErr != nil {
				log.WithError(typeErr).WithField("variable", name).
					Warn("failed to resolve variable type")
			} else {
				elements, typeName = describeType(typ)
			}
		} else {
			log.WithField("variable", name).Warn("variable has no type attribute")
		}

		vars = append(vars, variable{
			Name:     name,
			Address:  fmt.Sprintf("0x%08x", addr),
			Elements: elements,
			TypeName: typeName,
		})
	}
}

func writeCSV(w io.Writer, vars []variable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Variable", "Address", "No of Elements", "Type"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, v := range vars {
		record := []string{v.Name, v.Address, strconv.FormatInt(v.Elements, 10), v.TypeName}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func defaultOutputPath(elfPath string) string {
	base := strings.TrimSuffix(filepath.Base(elfPath), filepath.Ext(elfPath))
	timestamp := time.Now().Format("2006-01-02_150405")
	return fmt.Sprintf("%s_%s.csv", base, timestamp)
}

func run() error {
	elfPath := flag.String("elf", "", "Path to the firmware ELF image (required)")
	outPath := flag.String("out", "", "Output CSV path (default: <elf>_<timestamp>.csv)")
	flag.Parse()

	log := logrus.New()

	if *elfPath == "" {
		flag.Usage()
		return errors.New("missing -elf flag")
	}

	f, err := elf.Open(*elfPath)
	if err != nil {
		return fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	data, err := f.DWARF()
	if err != nil {
		return fmt.Errorf("no DWARF info found in the ELF file: %w", err)
	}

	vars, err := collectVariables(data, log)
	if err != nil {
		return err
	}
	if len(vars) == 0 {
		return errors.New("no user-defined variables found")
	}

	out := *outPath
	if out == "" {
		out = defaultOutputPath(*elfPath)
	}
	outFile, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := writeCSV(outFile, vars); err != nil {
		_ = outFile.Close()
		return err
	}
	if err := outFile.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	log.WithFields(logrus.Fields{
		"variables": len(vars),
		"csv":       out,
	}).Info("symbol table written")
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
