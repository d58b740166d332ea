package network

import "fmt"

// legalMask converts per-row legal actions into an indicator matrix and
// a penalty matrix, both of shape (batch, actions) in row-major order.
// Legal entries have indicator 1 and penalty 0, illegal entries have
// indicator 0 and penalty IllegalPenalty. A nil legal, or a nil row,
// marks every action as legal.
//
// A row with no legal actions is not rejected, the scores of such a row
// are all replaced by the penalty.
func legalMask(legal [][]int, batch, actions int) (mask, penalty []float64,
	err error) {
	if legal != nil && len(legal) != batch {
		return nil, nil, fmt.Errorf("legalMask: invalid number of rows"+
			"\n\twant(%v)\n\thave(%v)", batch, len(legal))
	}

	mask = make([]float64, batch*actions)
	penalty = make([]float64, batch*actions)

	for i := 0; i < batch; i++ {
		row := mask[i*actions : (i+1)*actions]

		if legal == nil || legal[i] == nil {
			for j := range row {
				row[j] = 1
			}
			continue
		}

		for _, a := range legal[i] {
			if a < 0 || a >= actions {
				return nil, nil, fmt.Errorf("legalMask: illegal action index"+
					"\n\twant([0, %v))\n\thave(%v)", actions, a)
			}
			row[a] = 1
		}
	}

	for i := range penalty {
		penalty[i] = (1 - mask[i]) * IllegalPenalty
	}

	return mask, penalty, nil
}
