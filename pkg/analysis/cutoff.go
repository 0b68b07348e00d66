package analysis

import (
	"context"
	"fmt"

	"github.com/David-Botos/prtr-cleaner/pkg/console"
)

// CutoffDialog asks how many of the top outliers to remove, previews the result and
// asks the analyst to confirm it. It repeats until the cutoff is accepted.
type CutoffDialog struct {
	Prompter console.Prompter
	Out      *console.Printer
	// Preview renders the charts for a candidate cutoff before confirmation
	Preview func(ctx context.Context, cutoff int) error
}

// Run returns the accepted cutoff. limit bounds the answer to [1, limit).
func (d *CutoffDialog) Run(ctx context.Context, limit int) (int, error) {
	if limit < 2 {
		return 0, fmt.Errorf("not enough rows to remove outliers from: %d", limit)
	}

	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		cutoff, err := console.IntInRange(d.Prompter, d.Out,
			"Enter how many of the top out-layers to remove", 1, limit)
		if err != nil {
			return 0, err
		}

		if d.Preview != nil {
			if err := d.Preview(ctx, cutoff); err != nil {
				d.Out.Error("Error during outlier preview: %v", err)
			}
		}

		ok, err := console.YesNo(d.Prompter, d.Out,
			fmt.Sprintf("Is the cutoff of %d removing enough of the outliers?", cutoff))
		if err != nil {
			return 0, err
		}
		if ok {
			return cutoff, nil
		}
	}
}
