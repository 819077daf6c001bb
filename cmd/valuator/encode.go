package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"positionScope/internal/strategy"
)

func runEncode(cmd *cobra.Command, args []string) error {
	strategyID, _ := cmd.Flags().GetString("strategy")
	template, _ := cmd.Flags().GetString("template")
	paramsPath, _ := cmd.Flags().GetString("params")

	if strategyID == "" {
		return fmt.Errorf("strategy id is required")
	}

	values := map[string]interface{}{}
	if paramsPath != "" {
		raw, err := os.ReadFile(paramsPath)
		if err != nil {
			return fmt.Errorf("read params file: %w", err)
		}
		if err := json.Unmarshal(raw, &values); err != nil {
			return fmt.Errorf("parse params file: %w", err)
		}
	}

	codec := strategy.NewCodec(strategy.Builtin()...)
	calls, err := codec.Encode(strategyID, values, template)
	if err != nil {
		return err
	}

	return printJSON(cmd, calls)
}
