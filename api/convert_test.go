// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package api_test

import (
	"encoding/json"

	"github.com/juju/loggo/v2"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/jujugui/api"
	"github.com/juju/jujugui/api/params"
	"github.com/juju/jujugui/core/cache"
	"github.com/juju/jujugui/core/delta"
	"github.com/juju/jujugui/core/notify"
	"github.com/juju/jujugui/core/relationindex"
	"github.com/juju/jujugui/internal/applier"
	"github.com/juju/jujugui/internal/metrics"
)

type convertSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&convertSuite{})

func decode(c *gc.C, s string) params.Delta {
	var d params.Delta
	c.Assert(json.Unmarshal([]byte(s), &d), jc.ErrorIsNil)
	return d
}

type data = map[string]interface{}

func (s *convertSuite) TestConvert(c *gc.C) {
	for i, test := range []struct {
		about    string
		in       string
		expected delta.Delta
	}{{
		about: "unit with workload error",
		in: `["unit","change",{"name":"mysql/0","application":"mysql","machine-id":"1",
			"public-address":"10.0.0.5",
			"agent-status":{"current":"idle","message":""},
			"workload-status":{"current":"error","message":"hook failed: \"install\""}}]`,
		expected: delta.New(delta.KindUnit, delta.VerbChange, data{
			"id":             "mysql/0",
			"serviceId":      "mysql",
			"machineId":      "1",
			"publicAddress":  "10.0.0.5",
			"isSubordinate":  false,
			"agentState":     "error",
			"agentStateInfo": `hook failed: "install"`,
		}),
	}, {
		about: "unplaced unit",
		in:    `["unit","change",{"name":"mysql/1","application":"mysql","machine-id":""}]`,
		expected: delta.New(delta.KindUnit, delta.VerbChange, data{
			"id":             "mysql/1",
			"serviceId":      "mysql",
			"machineId":      nil,
			"publicAddress":  nil,
			"isSubordinate":  false,
			"agentState":     nil,
			"agentStateInfo": nil,
		}),
	}, {
		about: "machine",
		in: `["machine","change",{"id":"1/lxc/0","series":"trusty",
			"agent-status":{"current":"started"},
			"instance-status":{"current":"running"},
			"addresses":[{"value":"10.0.0.2","scope":"local-cloud"},{"value":"54.1.2.3","scope":"public"}]}]`,
		expected: delta.New(delta.KindMachine, delta.VerbChange, data{
			"id":             "1/lxc/0",
			"series":         "trusty",
			"publicAddress":  "54.1.2.3",
			"instanceState":  "running",
			"agentState":     "started",
			"agentStateInfo": nil,
		}),
	}, {
		about: "relation",
		in: `["relation","change",{"key":"wordpress:db mysql:db","id":3,"endpoints":[
			{"application-name":"wordpress","relation":{"name":"db","role":"requirer","interface":"mysql","scope":"global"}},
			{"application-name":"mysql","relation":{"name":"db","role":"provider","interface":"mysql","scope":"global"}}]}]`,
		expected: delta.New(delta.KindRelation, delta.VerbChange, data{
			"id":        "wordpress:db mysql:db",
			"interface": "mysql",
			"scope":     "global",
			"endpoints": []interface{}{
				data{"serviceId": "wordpress", "name": "db", "role": "requirer"},
				data{"serviceId": "mysql", "name": "db", "role": "provider"},
			},
		}),
	}, {
		about:    "removed relation",
		in:       `["relation","remove",{"key":"wordpress:db mysql:db"}]`,
		expected: delta.New(delta.KindRelation, delta.VerbRemove, data{"id": "wordpress:db mysql:db"}),
	}, {
		about: "service annotations",
		in:    `["annotation","change",{"tag":"application-wordpress","annotations":{"gui-x":"100"}}]`,
		expected: delta.New(delta.KindService, delta.VerbChange, data{
			"id":          "wordpress",
			"annotations": data{"gui-x": "100"},
		}),
	}} {
		c.Logf("test %d: %s", i, test.about)
		converted, ok := api.ToDelta(decode(c, test.in))
		c.Assert(ok, jc.IsTrue)
		c.Check(converted, jc.DeepEquals, test.expected)

		// Everything the watcher produces is acceptable to the model.
		_, err := delta.Validate(converted)
		c.Check(err, jc.ErrorIsNil)
	}
}

func (s *convertSuite) TestSkipped(c *gc.C) {
	for i, in := range []string{
		`["model","change",{"name":"default"}]`,
		`["action","change",{"id":"1"}]`,
		`["annotation","change",{"tag":"unit-mysql-0","annotations":{}}]`,
		`["annotation","remove",{"tag":"application-wordpress"}]`,
	} {
		c.Logf("test %d: %s", i, in)
		_, ok := api.ToDelta(decode(c, in))
		c.Check(ok, jc.IsFalse)
	}
}

func (s *convertSuite) newApplier(c *gc.C) (*cache.Model, *applier.Applier) {
	model := cache.NewModel()
	a, err := applier.New(applier.Config{
		Model:   model,
		Bus:     notify.NewBus(),
		Index:   relationindex.New(model),
		Metrics: metrics.NewCollector(),
		Logger:  loggo.GetLogger("test"),
	})
	c.Assert(err, jc.ErrorIsNil)
	return model, a
}

func (s *convertSuite) TestAnnotationsAfterRemovalCreateNothing(c *gc.C) {
	model, a := s.newApplier(c)
	a.ApplyDeltaBatch(api.ToDeltas([]params.Delta{
		decode(c, `["application","change",{"name":"wordpress","charm-url":"cs:wordpress-4"}]`),
	}))
	_, found := model.Service("wordpress")
	c.Assert(found, jc.IsTrue)

	a.ApplyDeltaBatch(api.ToDeltas([]params.Delta{
		decode(c, `["application","remove",{"name":"wordpress"}]`),
		decode(c, `["annotation","remove",{"tag":"application-wordpress"}]`),
		decode(c, `["annotation","change",{"tag":"application-wordpress","annotations":{"gui-x":"1"}}]`),
	}))
	_, found = model.Service("wordpress")
	c.Check(found, jc.IsFalse)
	c.Check(a.Pending(), gc.HasLen, 0)
}

func (s *convertSuite) TestAnnotationsPatchService(c *gc.C) {
	model, a := s.newApplier(c)
	a.ApplyDeltaBatch(api.ToDeltas([]params.Delta{
		decode(c, `["application","change",{"name":"wordpress","charm-url":"cs:wordpress-4","exposed":true}]`),
		decode(c, `["annotation","change",{"tag":"application-wordpress","annotations":{"gui-x":"100"}}]`),
	}))
	svc, found := model.Service("wordpress")
	c.Assert(found, jc.IsTrue)
	c.Check(svc.CharmId, gc.Equals, "cs:wordpress-4")
	c.Check(svc.Exposed, jc.IsTrue)
	c.Check(svc.Annotations, jc.DeepEquals, map[string]string{"gui-x": "100"})
}

func (s *convertSuite) TestDecodeBadOperation(c *gc.C) {
	var d params.Delta
	err := json.Unmarshal([]byte(`["unit","destroy",{}]`), &d)
	c.Check(err, gc.ErrorMatches, `unexpected operation "destroy"`)
}

func (s *convertSuite) TestCharmDelta(c *gc.C) {
	d := api.CharmDelta(params.CharmInfo{URL: "cs:wordpress-1", Revision: 1})
	c.Check(d, jc.DeepEquals, delta.New(delta.KindCharm, delta.VerbChange, data{
		"id":       "cs:wordpress-1",
		"revision": 1,
	}))
}
