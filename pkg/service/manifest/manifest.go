package manifest

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/brendanbecker/ce101/pkg/domain/interfaces"
	"github.com/brendanbecker/ce101/pkg/domain/model"
	"github.com/brendanbecker/ce101/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	appsv1 "k8s.io/api/apps/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
	"sigs.k8s.io/yaml"
)

var ErrWorkloadNotFound = goerr.New("deployment not found in manifests")

// Source is a Cluster that reads objects from YAML or JSON manifest files
type Source struct {
	objects []unstructured.Unstructured
}

var _ interfaces.Cluster = &Source{}

// Load reads every manifest under the given paths. Directories are walked for
// .yaml, .yml and .json files; multi-document files and List kinds are expanded.
func Load(paths ...string) (*Source, error) {
	src := &Source{}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to access manifest path", goerr.V("path", p))
		}
		if !info.IsDir() {
			if err := src.loadFile(p); err != nil {
				return nil, err
			}
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !isManifest(d.Name()) {
				return nil
			}
			return src.loadFile(path)
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to walk manifest directory", goerr.V("path", p))
		}
	}
	return src, nil
}

func isManifest(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func (s *Source) loadFile(path string) error {
	// #nosec G304 - path is provided by CLI flag
	data, err := os.ReadFile(path)
	if err != nil {
		return goerr.Wrap(err, "failed to read manifest", goerr.V("path", path))
	}
	objs, err := Decode(data)
	if err != nil {
		return goerr.Wrap(err, "failed to decode manifest", goerr.V("path", path))
	}
	s.objects = append(s.objects, objs...)
	return nil
}

// Decode splits a YAML or JSON stream into objects. Empty documents and
// documents without a kind are skipped.
func Decode(data []byte) ([]unstructured.Unstructured, error) {
	reader := utilyaml.NewYAMLReader(bufio.NewReader(bytes.NewReader(data)))

	var out []unstructured.Unstructured
	for {
		doc, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, goerr.Wrap(err, "failed to split manifest documents")
		}

		raw, err := yaml.YAMLToJSON(doc)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid manifest document")
		}

		var head struct {
			Kind string `json:"kind"`
		}
		if err := yaml.Unmarshal(raw, &head); err != nil || head.Kind == "" {
			continue
		}

		var u unstructured.Unstructured
		if err := u.UnmarshalJSON(raw); err != nil {
			return nil, goerr.Wrap(err, "invalid manifest object", goerr.V("kind", head.Kind))
		}
		if u.IsList() {
			list, err := u.ToList()
			if err != nil {
				return nil, goerr.Wrap(err, "invalid List manifest")
			}
			out = append(out, list.Items...)
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

// inNamespace reports whether obj belongs to namespace. Manifests frequently
// omit metadata.namespace, so an empty namespace matches any.
func inNamespace(obj *unstructured.Unstructured, namespace string) bool {
	ns := obj.GetNamespace()
	return ns == "" || ns == namespace
}

func convert[T any](obj *unstructured.Unstructured) (*T, error) {
	var typed T
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(obj.Object, &typed); err != nil {
		return nil, goerr.Wrap(err, "failed to convert manifest object",
			goerr.V("kind", obj.GetKind()), goerr.V("name", obj.GetName()))
	}
	return &typed, nil
}

// FetchWorkload returns the named Deployment and the related objects found in the manifests
func (s *Source) FetchWorkload(ctx context.Context, namespace, name string) (*model.Workload, error) {
	w := &model.Workload{Namespace: namespace, Name: name}

	for i := range s.objects {
		obj := &s.objects[i]
		if !inNamespace(obj, namespace) {
			continue
		}

		var err error
		switch obj.GetKind() {
		case "Deployment":
			if obj.GetName() != name {
				continue
			}
			w.Deployment, err = convert[appsv1.Deployment](obj)
		case "Service":
			err = appendConverted(obj, &w.Services)
		case "PodDisruptionBudget":
			err = appendConverted(obj, &w.PodDisruptionBudgets)
		case "HorizontalPodAutoscaler":
			err = appendConverted(obj, &w.HorizontalPodAutoscalers)
		case "NetworkPolicy":
			err = appendConverted(obj, &w.NetworkPolicies)
		case "ServiceMonitor":
			w.ServiceMonitors = append(w.ServiceMonitors, *obj)
		case "PrometheusRule":
			w.PrometheusRules = append(w.PrometheusRules, *obj)
		}
		if err != nil {
			return nil, err
		}
	}

	if w.Deployment == nil {
		return nil, goerr.Wrap(ErrWorkloadNotFound, "no matching Deployment",
			goerr.V("namespace", namespace), goerr.V("name", name))
	}

	logging.From(ctx).Debug("workload loaded from manifests",
		"deployment", name,
		"services", len(w.Services),
		"pdbs", len(w.PodDisruptionBudgets),
		"hpas", len(w.HorizontalPodAutoscalers),
		"network_policies", len(w.NetworkPolicies),
		"service_monitors", len(w.ServiceMonitors),
		"prometheus_rules", len(w.PrometheusRules),
	)
	return w, nil
}

func appendConverted[T any](obj *unstructured.Unstructured, dst *[]T) error {
	typed, err := convert[T](obj)
	if err != nil {
		return err
	}
	*dst = append(*dst, *typed)
	return nil
}
