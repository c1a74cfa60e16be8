package cracker

// odometer 按嵌套循环顺序枚举各位置的候选序号：第 1 位变化最慢，末位最快。
// floor>0 时跳过所有位均 < floor 的组合（即已在前 L 轮尝试过的组合）。
type odometer struct {
	digits  []int
	radix   int
	floor   int
	started bool
	done    bool
}

func newOdometer(k, l, size int, pass Pass) *odometer {
	od := &odometer{digits: make([]int, k), radix: l}
	if pass == PassWide {
		od.radix = size
		od.floor = l
	}
	return od
}

// next 前进到下一个组合；枚举结束返回 false。
func (o *odometer) next() bool {
	for {
		if o.done {
			return false
		}
		if !o.started {
			o.started = true
		} else if !o.inc() {
			o.done = true
			return false
		}
		if o.floor == 0 || o.beyondFloor() {
			return true
		}
	}
}

func (o *odometer) inc() bool {
	for i := len(o.digits) - 1; i >= 0; i-- {
		o.digits[i]++
		if o.digits[i] < o.radix {
			return true
		}
		o.digits[i] = 0
	}
	return false
}

func (o *odometer) beyondFloor() bool {
	for _, d := range o.digits {
		if d >= o.floor {
			return true
		}
	}
	return false
}
