package metrics

import (
	"github.com/YuminosukeSato/rnnbench/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Metric はバッチごとに更新されるストリーミング指標
type Metric interface {
	// Name はログのキーとして使われる名前を返す
	Name() string
	// Update は1バッチ分のラベルと予測確率で状態を更新する
	Update(yTrue []int, yPred mat.Matrix) error
	// Result は現在までの集計値を返す
	Result() float64
	// Reset は集計をクリアする
	Reset()
}

// SparseCategoricalAccuracy は整数ラベルと確率行列から正解率を集計する
type SparseCategoricalAccuracy struct {
	correct int
	count   int
}

// NewSparseCategoricalAccuracy は空の正解率メトリクスを作成する
func NewSparseCategoricalAccuracy() *SparseCategoricalAccuracy {
	return &SparseCategoricalAccuracy{}
}

func (a *SparseCategoricalAccuracy) Name() string { return "accuracy" }

// Update は各行の argmax がラベルと一致した数を数える。
// 同値の場合は最初のクラスが選ばれる。
func (a *SparseCategoricalAccuracy) Update(yTrue []int, yPred mat.Matrix) error {
	correct, err := countCorrect(yTrue, yPred)
	if err != nil {
		return err
	}
	a.correct += correct
	a.count += len(yTrue)
	return nil
}

// Result は正解率を [0,1] で返す。サンプルが無い場合は 0
func (a *SparseCategoricalAccuracy) Result() float64 {
	if a.count == 0 {
		return 0
	}
	return float64(a.correct) / float64(a.count)
}

func (a *SparseCategoricalAccuracy) Reset() {
	a.correct = 0
	a.count = 0
}

func countCorrect(yTrue []int, yPred mat.Matrix) (int, error) {
	n := len(yTrue)
	if n == 0 {
		return 0, errors.NewValueError("SparseCategoricalAccuracy", "empty labels")
	}
	rows, cols := yPred.Dims()
	if rows != n {
		return 0, errors.NewDimensionError("SparseCategoricalAccuracy", n, rows, 0)
	}

	row := make([]float64, cols)
	correct := 0
	for i, label := range yTrue {
		mat.Row(row, i, yPred)
		if floats.MaxIdx(row) == label {
			correct++
		}
	}
	return correct, nil
}

// Mean は重み付き平均を集計する。損失のバッチ平均をサンプル数で重み付けして
// エポック全体の平均にするために使う。
type Mean struct {
	name   string
	total  float64
	weight float64
}

// NewMean は name という名前の平均メトリクスを作成する
func NewMean(name string) *Mean {
	return &Mean{name: name}
}

func (m *Mean) Name() string { return m.name }

// Add は value を weight の重みで加える
func (m *Mean) Add(value, weight float64) {
	m.total += value * weight
	m.weight += weight
}

// Result は重み付き平均を返す。重みが 0 の場合は 0
func (m *Mean) Result() float64 {
	if m.weight == 0 {
		return 0
	}
	return m.total / m.weight
}

func (m *Mean) Reset() {
	m.total = 0
	m.weight = 0
}
