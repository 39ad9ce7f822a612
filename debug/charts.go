package debug

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"go.uber.org/zap"
)

// Charts 图表输出
type Charts struct {
	*Record
	Logger *zap.Logger
}

var legend = opts.Legend{
	Type:   "scroll",
	Orient: "vertical",
	Right:  "10",
	Top:    "20",
	Bottom: "20",
}

// Render 格式化
func (c *Charts) Render(w io.Writer) error {
	graph := charts.NewGraph()
	graph.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "节点映射",
			Subtitle: "实例局部节点到全局节点, 合并的节点共用同一目标",
		}),
		charts.WithLegendOpts(legend),
	)
	graph.SetSeriesOptions(
		charts.WithEmphasisOpts(opts.Emphasis{
			Label: &opts.Label{
				Show:     opts.Bool(true),
				Color:    "black",
				Position: "left",
			},
		}),
		charts.WithLineStyleOpts(opts.LineStyle{
			Curveness: 0.3,
		}),
	)
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "流程耗时",
			Subtitle: "每次 setup / 温度更新 / 卸载的耗时(ms)",
		}),
		charts.WithLegendOpts(legend),
		charts.WithYAxisOpts(opts.YAxis{
			Scale: opts.Bool(true),
		}),
	)

	// 实例与节点
	{
		elements := make([]opts.GraphNode, len(c.Elements))
		for i, n := range c.Elements {
			elements[i] = opts.GraphNode{
				Name:     n,
				Category: 0,
				Tooltip:  &opts.Tooltip{Show: opts.Bool(true)},
			}
		}
		elements[0].ItemStyle = &opts.ItemStyle{Color: "#000000de"}

		links := make([]opts.GraphLink, 0)
		nodes := make([]opts.GraphNode, 0, len(c.Nodes))
		for i, list := range c.Nodes {
			if len(list) == 0 {
				continue
			}
			target := elements[0].Name
			if i > 0 {
				category := 1
				if c.Internal[i] {
					category = 2
				}
				target = fmt.Sprintf("%s(%d)", c.NodeNames[i], i)
				nodes = append(nodes, opts.GraphNode{
					Name:     target,
					Category: category,
					Tooltip:  &opts.Tooltip{Show: opts.Bool(true)},
				})
			}
			for _, y := range list {
				links = append(links, opts.GraphLink{
					Source: elements[y[0]].Name,
					Target: target,
					Value:  float32(y[1]),
				})
			}
		}
		graph.AddSeries("节点映射", append(elements, nodes...), links,
			charts.WithGraphChartOpts(opts.GraphChart{
				Categories: []*opts.GraphCategory{
					{Name: "实例", ItemStyle: &opts.ItemStyle{Color: "#c71979b7"}},
					{Name: "外部节点", ItemStyle: &opts.ItemStyle{Color: "#1987c7b7"}},
					{Name: "内部节点", ItemStyle: &opts.ItemStyle{Color: "#19c77bb7"}},
				},
				Roam:               opts.Bool(true),
				Force:              &opts.GraphForce{Repulsion: 80},
				EdgeLabel:          &opts.EdgeLabel{Show: opts.Bool(true)},
				FocusNodeAdjacency: opts.Bool(true),
			}))
	}
	// 耗时
	{
		durations := make([]opts.LineData, len(c.Duration))
		failed := make([]opts.LineData, len(c.Failed))
		for i, v := range c.Duration {
			durations[i] = opts.LineData{Value: v}
		}
		for i, v := range c.Failed {
			failed[i] = opts.LineData{Value: v}
		}
		line.SetXAxis(c.Passes).
			AddSeries("耗时", durations).
			AddSeries("失败实体", failed)
	}

	page := components.NewPage()
	page.AddCharts(graph, line)
	return page.Render(w)
}

// Handler 发布到网页面
func (c *Charts) Handler(w http.ResponseWriter, _ *http.Request) {
	if err := c.Render(w); err != nil {
		c.Error(err)
	}
}

func (c *Charts) Error(err error) {
	if c.Logger != nil {
		c.Logger.Error("render charts", zap.Error(err))
	}
}
