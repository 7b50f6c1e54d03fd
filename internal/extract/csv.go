package extract

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

var csvHeader = []string{
	"row_number",
	"locktime", "is_timestamp_lock", "blocks_until_unlock", "seconds_until_unlock", "already_unlocked",
	"n_inputs", "sum_inputs", "mean_inputs", "var_inputs",
	"min_sequence", "rbf_flag",
	"n_outputs", "sum_outputs", "max_output", "second_max_output",
	"std_outputs", "q25_outputs", "q75_outputs", "dust_output_count",
	"fee", "fee_rate_size", "fee_rate_weight",
	"pct_outputs_p2wpkh",
	"sigops", "sigops_per_input", "sigops_per_output", "sigops_density", "relative_sig_complexity",
	"txid", "change_address", "change_position", "change_addr_is_legacy", "change_addr_type",
}

// WriteCSV writes the feature rows with a header line.
func WriteCSV(w io.Writer, rows []Features) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, f := range rows {
		record := []string{
			strconv.Itoa(f.RowNumber),
			strconv.FormatUint(uint64(f.Locktime), 10),
			strconv.Itoa(f.IsTimestampLock),
			strconv.FormatInt(f.BlocksUntilUnlock, 10),
			strconv.FormatInt(f.SecondsUntilUnlock, 10),
			strconv.Itoa(f.AlreadyUnlocked),
			strconv.Itoa(f.NInputs),
			strconv.FormatInt(f.SumInputs, 10),
			formatFloat(f.MeanInputs),
			formatFloat(f.VarInputs),
			strconv.FormatUint(uint64(f.MinSequence), 10),
			strconv.Itoa(f.RBFFlag),
			strconv.Itoa(f.NOutputs),
			strconv.FormatInt(f.SumOutputs, 10),
			strconv.FormatInt(f.MaxOutput, 10),
			strconv.FormatInt(f.SecondMaxOutput, 10),
			formatFloat(f.StdOutputs),
			formatFloat(f.Q25Outputs),
			formatFloat(f.Q75Outputs),
			strconv.Itoa(f.DustOutputCount),
			strconv.FormatInt(f.Fee, 10),
			formatFloat(f.FeeRateSize),
			formatFloat(f.FeeRateWeight),
			formatFloat(f.PctOutputsP2WPKH),
			strconv.FormatInt(f.Sigops, 10),
			formatFloat(f.SigopsPerInput),
			formatFloat(f.SigopsPerOutput),
			formatFloat(f.SigopsDensity),
			formatFloat(f.RelativeSigComplexity),
			f.Txid,
			f.ChangeAddress,
			strconv.Itoa(f.ChangePosition),
			strconv.Itoa(f.ChangeAddrIsLegacy),
			f.ChangeAddrType,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
