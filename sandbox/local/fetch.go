package local

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/dop251/goja"
)

// maxFetchBodyBytes caps how much of a response body fetch will read.
const maxFetchBodyBytes = 8 * 1024 * 1024

type fetchOptions struct {
	Method  string
	Headers map[string]string
	Body    string
}

type fetchResponse struct {
	Status     int
	StatusText string
	Headers    map[string]string
	Body       string
}

// fetchFunc returns the fetch binding. The request runs synchronously on
// the engine goroutine and the returned promise is already settled, so
// awaiting it resumes on the engine's job queue before evaluation returns.
func (inv *Invoker) fetchFunc(ctx context.Context, vm *goja.Runtime) func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		promise, resolve, reject := vm.NewPromise()

		if inv.cfg.DisableNetwork {
			reject(vm.NewTypeError("fetch is disabled in this environment"))
			return vm.ToValue(promise)
		}
		if len(call.Arguments) < 1 {
			reject(vm.NewTypeError("fetch requires a URL"))
			return vm.ToValue(promise)
		}

		url := call.Arguments[0].String()
		opts := fetchOptions{Method: http.MethodGet}
		if len(call.Arguments) > 1 {
			opts = fetchOptionsFrom(call.Arguments[1])
		}

		resp, err := inv.doFetch(ctx, url, opts)
		if err != nil {
			inv.logf("fetch %s %s failed: %v", opts.Method, url, err)
			reject(vm.NewTypeError("fetch failed: %v", err))
			return vm.ToValue(promise)
		}
		resolve(responseObject(vm, resp))
		return vm.ToValue(promise)
	}
}

func fetchOptionsFrom(arg goja.Value) fetchOptions {
	opts := fetchOptions{Method: http.MethodGet}
	obj, ok := arg.(*goja.Object)
	if !ok {
		return opts
	}
	if v := obj.Get("method"); v != nil && !goja.IsUndefined(v) {
		opts.Method = strings.ToUpper(v.String())
	}
	if v := obj.Get("body"); v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
		opts.Body = v.String()
	}
	if v := obj.Get("headers"); v != nil {
		if h, ok := v.(*goja.Object); ok {
			opts.Headers = make(map[string]string, len(h.Keys()))
			for _, key := range h.Keys() {
				opts.Headers[key] = h.Get(key).String()
			}
		}
	}
	return opts
}

func (inv *Invoker) doFetch(ctx context.Context, url string, opts fetchOptions) (*fetchResponse, error) {
	var body io.Reader
	if opts.Body != "" {
		body = strings.NewReader(opts.Body)
	}
	req, err := http.NewRequestWithContext(ctx, opts.Method, url, body)
	if err != nil {
		return nil, err
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := inv.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBodyBytes))
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(resp.Header))
	for name := range resp.Header {
		headers[strings.ToLower(name)] = resp.Header.Get(name)
	}
	return &fetchResponse{
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Headers:    headers,
		Body:       string(data),
	}, nil
}

// responseObject exposes the subset of the Response interface snippets
// lean on: ok, status, statusText, headers, text(), and json(). The body
// is already read, so both accessors are synchronous; awaiting them is
// still valid.
func responseObject(vm *goja.Runtime, resp *fetchResponse) *goja.Object {
	obj := vm.NewObject()
	body := resp.Body
	_ = obj.Set("ok", resp.Status >= 200 && resp.Status < 300)
	_ = obj.Set("status", resp.Status)
	_ = obj.Set("statusText", resp.StatusText)
	_ = obj.Set("headers", resp.Headers)
	_ = obj.Set("text", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(body)
	})
	_ = obj.Set("json", func(call goja.FunctionCall) goja.Value {
		var parsed any
		if err := json.Unmarshal([]byte(body), &parsed); err != nil {
			panic(vm.NewTypeError("response body is not valid JSON: %v", err))
		}
		return vm.ToValue(parsed)
	})
	return obj
}
