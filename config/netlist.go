package config

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// 网表关键字
const (
	tokenValue        = ".value" // 变量定义
	tokenModel        = ".model" // 模型定义
	tokenSim          = ".sim"   // 仿真设置
	tokenUnconnected  = "-"      // 未连接端子
	tokenCommentHash  = "#"
	tokenCommentLine  = "//"
	tokenBlockStart   = "/*"
	tokenBlockEnd     = "*/"
	tokenContinuation = "+"
)

// netLine 去掉注释并合并续行后的一行
type netLine struct {
	fields []string
	line   int
}

// splitLines 读取网表, 处理注释和 + 续行
func splitLines(r io.Reader) ([]netLine, error) {
	var (
		out     []netLine
		inBlock bool
	)
	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		text := scanner.Text()
		if inBlock {
			i := strings.Index(text, tokenBlockEnd)
			if i < 0 {
				continue
			}
			text, inBlock = text[i+len(tokenBlockEnd):], false
		}
		if i := strings.Index(text, tokenBlockStart); i >= 0 {
			if j := strings.Index(text[i:], tokenBlockEnd); j >= 0 {
				text = text[:i] + " " + text[i+j+len(tokenBlockEnd):]
			} else {
				text, inBlock = text[:i], true
			}
		}
		for _, c := range []string{tokenCommentLine, tokenCommentHash} {
			if i := strings.Index(text, c); i >= 0 {
				text = text[:i]
			}
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == tokenContinuation {
			if len(out) == 0 {
				return nil, fmt.Errorf("line %d: continuation without a statement: %w", n, ErrInvalid)
			}
			out[len(out)-1].fields = append(out[len(out)-1].fields, fields[1:]...)
			continue
		}
		out = append(out, netLine{fields: fields, line: n})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if inBlock {
		return nil, fmt.Errorf("unterminated block comment: %w", ErrInvalid)
	}
	return out, nil
}

// 数值后缀
var scales = []struct {
	suffix string
	factor float64
}{
	{"meg", 1e6}, {"mil", 25.4e-6},
	{"t", 1e12}, {"g", 1e9}, {"k", 1e3}, {"m", 1e-3},
	{"u", 1e-6}, {"n", 1e-9}, {"p", 1e-12}, {"f", 1e-15},
}

// parseNumber 解析带工程后缀的数值, 变量优先
func parseNumber(s string, vars map[string]string) (float64, error) {
	if v, ok := vars[strings.ToLower(s)]; ok {
		s = v
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	lower := strings.ToLower(s)
	for _, sc := range scales {
		i := strings.Index(lower, sc.suffix)
		if i <= 0 {
			continue
		}
		v, err := strconv.ParseFloat(lower[:i], 64)
		if err != nil {
			continue
		}
		return v * sc.factor, nil
	}
	return 0, fmt.Errorf("invalid number %q", s)
}

// parseAssign 解析 key=value
func parseAssign(tok string, vars map[string]string) (string, float64, error) {
	k, v, ok := strings.Cut(tok, "=")
	if !ok || k == "" {
		return "", 0, fmt.Errorf("expected key=value, got %q", tok)
	}
	f, err := parseNumber(v, vars)
	return strings.ToLower(k), f, err
}

func lineErr(n int, err error) error {
	return fmt.Errorf("line %d: %v: %w", n, err, ErrInvalid)
}

// decodeNetlist 解析文本网表.
//
//	.value rl 2k
//	.sim temp=27 csc=1
//	.model dmod diode rs=5
//	d1 b 0 dmod area=2 temp=30
//
// 实例行: 名称, 端子..., 模型, 参数...; 端子 "-" 表示未连接.
func decodeNetlist(src []byte) (Config, error) {
	var cfg Config
	lines, err := splitLines(bytes.NewReader(src))
	if err != nil {
		return cfg, err
	}

	// 第一遍扫描: 变量和模型
	vars := map[string]string{}
	index := map[string]int{}
	for _, l := range lines {
		switch strings.ToLower(l.fields[0]) {
		case tokenValue:
			if len(l.fields) != 3 {
				return cfg, lineErr(l.line, fmt.Errorf(".value needs a name and a value"))
			}
			vars[strings.ToLower(l.fields[1])] = l.fields[2]
		case tokenModel:
			if len(l.fields) < 3 {
				return cfg, lineErr(l.line, fmt.Errorf(".model needs a name and a device"))
			}
			m := Model{Name: l.fields[1], Device: l.fields[2], Params: map[string]float64{}}
			if _, ok := index[m.Name]; ok {
				return cfg, lineErr(l.line, fmt.Errorf("duplicate model %q", m.Name))
			}
			index[m.Name] = len(cfg.Models)
			cfg.Models = append(cfg.Models, m)
		}
	}

	// 第二遍扫描: 模型参数, 仿真设置和实例
	for _, l := range lines {
		switch strings.ToLower(l.fields[0]) {
		case tokenValue:
		case tokenModel:
			m := &cfg.Models[index[l.fields[1]]]
			for _, tok := range l.fields[3:] {
				k, v, err := parseAssign(tok, vars)
				if err != nil {
					return cfg, lineErr(l.line, err)
				}
				m.Params[k] = v
			}
		case tokenSim:
			for _, tok := range l.fields[1:] {
				k, v, err := parseAssign(tok, vars)
				if err != nil {
					return cfg, lineErr(l.line, err)
				}
				if err := cfg.Sim.setOption(k, v); err != nil {
					return cfg, lineErr(l.line, err)
				}
			}
		default:
			if strings.HasPrefix(l.fields[0], ".") {
				return cfg, lineErr(l.line, fmt.Errorf("unknown command %s", l.fields[0]))
			}
			model, inst, err := parseInstance(l.fields, vars, index)
			if err != nil {
				return cfg, lineErr(l.line, err)
			}
			cfg.Models[model].Instances = append(cfg.Models[model].Instances, inst)
		}
	}
	return cfg, nil
}

// parseInstance 解析实例行, 返回所属模型下标
func parseInstance(fields []string, vars map[string]string, index map[string]int) (int, Instance, error) {
	inst := Instance{Name: fields[0]}
	var plain []string
	for _, tok := range fields[1:] {
		if !strings.Contains(tok, "=") {
			plain = append(plain, tok)
			continue
		}
		k, v, err := parseAssign(tok, vars)
		if err != nil {
			return 0, inst, err
		}
		switch k {
		case "temp":
			inst.Temp = &v
		case "dtemp":
			inst.DTemp = &v
		default:
			if inst.Params == nil {
				inst.Params = map[string]float64{}
			}
			inst.Params[k] = v
		}
	}
	if len(plain) < 2 {
		return 0, inst, fmt.Errorf("instance %s needs terminals and a model", inst.Name)
	}
	model, ok := index[plain[len(plain)-1]]
	if !ok {
		return 0, inst, fmt.Errorf("instance %s: unknown model %q", inst.Name, plain[len(plain)-1])
	}
	for _, t := range plain[:len(plain)-1] {
		if t == tokenUnconnected {
			t = ""
		}
		inst.Terminals = append(inst.Terminals, t)
	}
	return model, inst, nil
}

// setOption 按名称写仿真设置, 温度单位为摄氏度
func (s *Sim) setOption(key string, v float64) error {
	switch key {
	case "temp":
		s.Temp = &v
	case "tnom":
		s.Tnom = &v
	case "gmin":
		s.Gmin = v
	case "abstol":
		s.Abstol = v
	case "reltol":
		s.Reltol = v
	case "vntol":
		s.Vntol = v
	case "scale":
		s.Scale = v
	case "max_elements":
		s.MaxElements = int(v)
	case "csc":
		s.CSC = v != 0
	default:
		return fmt.Errorf("unknown sim option %q", key)
	}
	return nil
}
