package auth

import (
	"fmt"
	"math"
	"time"
)

var (
	periods = []string{"second", "minute", "hour", "day", "week", "month", "year"}
	lengths = []float64{60, 60, 24, 7, 4.35, 12}
)

// HumanDuration renders a duration as the largest fitting whole unit, e.g.
// "3 minutes" or "1 hour". Cosmetic only; never use the result for logic.
func HumanDuration(d time.Duration) string {
	diff := math.Abs(d.Seconds())

	i := 0
	for ; i < len(lengths) && diff >= lengths[i]; i++ {
		diff /= lengths[i]
	}

	n := int(math.Round(diff))
	unit := periods[i]
	if n != 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s", n, unit)
}
