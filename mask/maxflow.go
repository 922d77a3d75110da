package mask

import "math"

// cutGraph 像素图上的最大流/最小割（Dinic）。
// 节点 0..n-1 为像素，n 为源点（前景），n+1 为汇点（背景）。
// 弧成对存储，e^1 为 e 的反向弧。
type cutGraph struct {
	n      int
	source int32
	sink   int32

	head []int32
	next []int32
	to   []int32
	cap  []float64

	level []int32
	iter  []int32
	queue []int32

	// 源、汇两侧同时存在的容量直接抵消后累计到这里
	flow float64
}

func newCutGraph(pixels, edgeHint int) *cutGraph {
	total := pixels + 2
	g := &cutGraph{
		n:      pixels,
		source: int32(pixels),
		sink:   int32(pixels + 1),
		head:   make([]int32, total),
		next:   make([]int32, 0, edgeHint),
		to:     make([]int32, 0, edgeHint),
		cap:    make([]float64, 0, edgeHint),
		level:  make([]int32, total),
		iter:   make([]int32, total),
		queue:  make([]int32, 0, total),
	}
	for i := range g.head {
		g.head[i] = -1
	}
	return g
}

func (g *cutGraph) addArc(u, v int32, c float64) {
	g.to = append(g.to, v)
	g.cap = append(g.cap, c)
	g.next = append(g.next, g.head[u])
	g.head[u] = int32(len(g.to) - 1)
}

// addEdges 添加 u->v 容量 w 与 v->u 容量 rw
func (g *cutGraph) addEdges(u, v int, w, rw float64) {
	g.addArc(int32(u), int32(v), w)
	g.addArc(int32(v), int32(u), rw)
}

// addTermWeights 设置像素到源点、汇点的容量
func (g *cutGraph) addTermWeights(v int, toSource, toSink float64) {
	d := min(toSource, toSink)
	g.flow += d
	toSource -= d
	toSink -= d
	if toSource > 0 {
		g.addEdges(int(g.source), v, toSource, 0)
	}
	if toSink > 0 {
		g.addEdges(v, int(g.sink), toSink, 0)
	}
}

// maxFlow 计算最大流，结束后 level >= 0 的节点即残量图中源点可达的一侧
func (g *cutGraph) maxFlow() float64 {
	for g.bfs() {
		copy(g.iter, g.head)
		for {
			f := g.dfs(g.source, math.Inf(1))
			if f <= 0 {
				break
			}
			g.flow += f
		}
	}
	return g.flow
}

func (g *cutGraph) bfs() bool {
	for i := range g.level {
		g.level[i] = -1
	}
	g.queue = g.queue[:0]
	g.level[g.source] = 0
	g.queue = append(g.queue, g.source)
	for i := 0; i < len(g.queue); i++ {
		v := g.queue[i]
		for e := g.head[v]; e >= 0; e = g.next[e] {
			u := g.to[e]
			if g.cap[e] > 0 && g.level[u] < 0 {
				g.level[u] = g.level[v] + 1
				g.queue = append(g.queue, u)
			}
		}
	}
	return g.level[g.sink] >= 0
}

func (g *cutGraph) dfs(v int32, f float64) float64 {
	if v == g.sink {
		return f
	}
	for ; g.iter[v] >= 0; g.iter[v] = g.next[g.iter[v]] {
		e := g.iter[v]
		u := g.to[e]
		if g.cap[e] <= 0 || g.level[u] != g.level[v]+1 {
			continue
		}
		d := g.dfs(u, min(f, g.cap[e]))
		if d > 0 {
			g.cap[e] -= d
			g.cap[e^1] += d
			return d
		}
	}
	return 0
}

// inSourceSegment 像素是否落在源点（前景）一侧，仅在 maxFlow 之后有效
func (g *cutGraph) inSourceSegment(v int) bool {
	return g.level[v] >= 0
}
