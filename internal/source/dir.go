package source

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExtensions 是上传服务允许的文档类型（目录来源的默认过滤集）。
var DefaultExtensions = []string{".pdf", ".txt", ".docx"}

// DirOptions 控制目录来源的过滤规则。
type DirOptions struct {
	// ExcludeDirs 视为相对 root 的路径（若是绝对路径，则按绝对路径处理）。
	ExcludeDirs []string
	// Extensions 为空表示不过滤；比较时忽略大小写。
	Extensions []string
}

// ListDir 列出 root 下的文件名（相对 root，使用 '/' 分隔）。
//
// 规则：
// - 只做 stat（DirEntry），不读文件内容
// - 隐藏文件与隐藏目录（以 '.' 开头）跳过
// - 输出按字典序稳定排序，保证卡片行序在不同文件系统上一致
// - root 不存在或不是目录时报错（不能渲染成 "No files"）；root 本身是符号链接时先解析
func ListDir(root string, opt DirOptions) ([]string, error) {
	root, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}
	excluded := buildExcluded(root, opt.ExcludeDirs)
	exts := normExts(opt.Extensions)

	names := make([]string, 0, 64)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == root {
			return nil
		}

		if isExcluded(path, excluded) || strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		if len(exts) > 0 {
			if _, ok := exts[strings.ToLower(filepath.Ext(d.Name()))]; !ok {
				return nil
			}
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(names)
	return names, nil
}

// resolveRoot 解析符号链接并确认 root 是目录。
// WalkDir 不跟随 root 处的链接，且对普通文件只回调一次，两者都会静默得到空列表。
func resolveRoot(root string) (string, error) {
	resolved, err := filepath.EvalSymlinks(filepath.Clean(root))
	if err != nil {
		return "", err
	}
	fi, err := os.Stat(resolved)
	if err != nil {
		return "", err
	}
	if !fi.IsDir() {
		return "", fmt.Errorf("不是目录：%q", root)
	}
	return resolved, nil
}

func normExts(in []string) map[string]struct{} {
	if len(in) == 0 {
		return nil
	}
	m := make(map[string]struct{}, len(in))
	for _, e := range in {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		m[e] = struct{}{}
	}
	return m
}

func buildExcluded(root string, excludeDirs []string) []string {
	excluded := make([]string, 0, len(excludeDirs))
	for _, x := range excludeDirs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if filepath.IsAbs(x) {
			// 与 root 一样按解析后的真实路径比较；解析失败（例如目录不存在）时按原样比较。
			if resolved, err := filepath.EvalSymlinks(x); err == nil {
				x = resolved
			}
			excluded = append(excluded, filepath.Clean(x))
			continue
		}
		excluded = append(excluded, filepath.Clean(filepath.Join(root, x)))
	}
	sort.Strings(excluded)
	return excluded
}

func isExcluded(path string, excluded []string) bool {
	path = filepath.Clean(path)
	for _, base := range excluded {
		if path == base || strings.HasPrefix(path, base+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
